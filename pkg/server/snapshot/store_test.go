// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package snapshot

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/analysis"
)

func TestStore_AddAndGet(t *testing.T) {
	s := NewStore(3)
	_, ok := s.Latest()
	assert.False(t, ok)

	added := s.Add(Snapshot{Source: "lsof", Report: analysis.SecurityReport{Score: 90}})
	_, err := uuid.Parse(added.ID)
	require.NoError(t, err)

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Report.Score)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, added.ID, latest.ID)
}

func TestStore_Bounded(t *testing.T) {
	s := NewStore(2)
	first := s.Add(Snapshot{Report: analysis.SecurityReport{Score: 1}})
	s.Add(Snapshot{Report: analysis.SecurityReport{Score: 2}})
	s.Add(Snapshot{Report: analysis.SecurityReport{Score: 3}})

	assert.Equal(t, 2, s.Len())
	list := s.List(0)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].Score, "newest first")
	assert.Equal(t, 2, list[1].Score)

	_, err := s.Get(first.ID)
	assert.ErrorIs(t, err, analysis.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Add(Snapshot{Trigger: fmt.Sprint(i)})
	}
	assert.Len(t, s.List(2), 2)
	assert.Len(t, s.List(50), 5)
	assert.Equal(t, "4", s.List(1)[0].Trigger)
}

func TestStore_GetInvalidID(t *testing.T) {
	_, err := NewStore(1).Get("not-a-uuid")
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
	assert.Equal(t, 400, analysis.HTTPStatus(err))
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore(5)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(Snapshot{})
			_ = s.List(3)
			_, _ = s.Latest()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, s.Len())
}

func TestNewStore_MinimumLimit(t *testing.T) {
	s := NewStore(0)
	s.Add(Snapshot{})
	s.Add(Snapshot{})
	assert.Equal(t, 1, s.Len())
}
