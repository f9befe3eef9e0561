// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package snapshot keeps the most recent analysis results in memory.
package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netwatch/netwatch/pkg/analysis"
)

// Snapshot is one stored analysis result.
type Snapshot struct {
	ID       string                  `json:"id"`
	Source   string                  `json:"source"`
	Trigger  string                  `json:"trigger"`
	TakenAt  time.Time               `json:"taken_at"`
	Duration time.Duration           `json:"duration_ns"`
	Report   analysis.SecurityReport `json:"report"`
}

// Summary is the list view of a snapshot.
type Summary struct {
	ID       string          `json:"id"`
	Source   string          `json:"source"`
	Trigger  string          `json:"trigger"`
	TakenAt  time.Time       `json:"taken_at"`
	Score    int             `json:"score"`
	Rating   analysis.Rating `json:"rating"`
	Findings int             `json:"findings"`
}

// Summarize returns the list view of s.
func (s Snapshot) Summarize() Summary {
	return Summary{
		ID:       s.ID,
		Source:   s.Source,
		Trigger:  s.Trigger,
		TakenAt:  s.TakenAt,
		Score:    s.Report.Score,
		Rating:   s.Report.Rating,
		Findings: len(s.Report.Findings),
	}
}

// Store is a bounded, newest-first snapshot ring.
type Store struct {
	mu    sync.RWMutex
	limit int
	items []Snapshot
	newID func() string
}

// NewStore creates a store that keeps at most limit snapshots.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1
	}
	return &Store{
		limit: limit,
		newID: func() string { return uuid.NewString() },
	}
}

// Add stores a snapshot, assigning its ID, and evicts the oldest entry when
// the store is full.
func (s *Store) Add(snap Snapshot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.ID = s.newID()
	s.items = append([]Snapshot{snap}, s.items...)
	if len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}
	return snap
}

// Latest returns the newest snapshot.
func (s *Store) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		return Snapshot{}, false
	}
	return s.items[0], true
}

// Get returns the snapshot with the given id.
func (s *Store) Get(id string) (Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Snapshot{}, fmt.Errorf("%w: snapshot id %q is not a UUID", analysis.ErrInvalidInput, id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return Snapshot{}, fmt.Errorf("%w: snapshot %s", analysis.ErrNotFound, id)
}

// List returns up to limit summaries, newest first.
func (s *Store) List(limit int) []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Summary, n)
	for i := 0; i < n; i++ {
		out[i] = s.items[i].Summarize()
	}
	return out
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
