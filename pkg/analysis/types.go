// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package analysis is the NetWatch analysis engine. It categorizes parsed
// connection records, assigns risk tiers, scores the host and derives
// recommendations, producing an immutable SecurityReport. The engine is a
// pure function of its input and rule set and keeps no state between runs.
package analysis

import (
	"fmt"
	"strings"

	"github.com/netwatch/netwatch/pkg/listing"
)

// Category is the functional group a process belongs to.
type Category string

const (
	CategorySystem        Category = "system"
	CategoryDevelopment   Category = "development"
	CategoryFileSharing   Category = "file_sharing"
	CategoryCommunication Category = "communication"
	CategoryDatabase      Category = "database"
	CategoryMedia         Category = "media"
	CategoryBrowsers      Category = "browsers"
	CategoryProductivity  Category = "productivity"
	CategoryUncategorized Category = "uncategorized"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategorySystem, CategoryCommunication, CategoryDatabase, CategoryFileSharing,
	CategoryDevelopment, CategoryMedia, CategoryBrowsers, CategoryProductivity,
	CategoryUncategorized,
}

// RiskTier is an ordered severity classification. Higher is worse.
type RiskTier int

const (
	TierLow RiskTier = iota
	TierMedium
	TierHigh
	TierCritical
)

var tierNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (t RiskTier) String() string {
	if t < TierLow || t > TierCritical {
		return fmt.Sprintf("RiskTier(%d)", int(t))
	}
	return tierNames[t]
}

// MarshalText renders the tier by name in JSON and YAML.
func (t RiskTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name.
func (t *RiskTier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (RiskTier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(s, name) {
			return RiskTier(i), nil
		}
	}
	return TierLow, fmt.Errorf("%w: unknown risk tier %q", ErrInvalidInput, s)
}

// FindingKind distinguishes per-record findings from cross-record ones.
type FindingKind string

const (
	// KindExposure is a single service flagged by its risk tier or a score penalty.
	KindExposure FindingKind = "exposure"
	// KindPortConflict is a local port held by more than one process.
	KindPortConflict FindingKind = "port_conflict"
)

// Finding is a risk-relevant record with its derived category and tier.
type Finding struct {
	Kind     FindingKind              `json:"kind" yaml:"kind"`
	Record   listing.ConnectionRecord `json:"record" yaml:"record"`
	Category Category                 `json:"category" yaml:"category"`
	Tier     RiskTier                 `json:"tier" yaml:"tier"`
	// Rule names the risk rule that matched, empty when none did.
	Rule string `json:"rule,omitempty" yaml:"rule,omitempty"`
	// Service is the well-known name of the local port, if any.
	Service string `json:"service,omitempty" yaml:"service,omitempty"`

	Escalated    bool `json:"escalated,omitempty" yaml:"escalated,omitempty"`
	Wildcard     bool `json:"wildcard,omitempty" yaml:"wildcard,omitempty"`
	RootHighPort bool `json:"root_high_port,omitempty" yaml:"root_high_port,omitempty"`
	Suspicious   bool `json:"suspicious,omitempty" yaml:"suspicious,omitempty"`

	// PIDs holds every process bound to the port for port conflicts.
	PIDs []int `json:"pids,omitempty" yaml:"pids,omitempty"`
}

// Port returns the local port of the finding.
func (f Finding) Port() int {
	return f.Record.LocalPort
}

// ProcessName returns the process name of the finding.
func (f Finding) ProcessName() string {
	return f.Record.ProcessName
}

// Summary holds the headline counts of a report.
type Summary struct {
	Total           int `json:"total" yaml:"total"`
	Listening       int `json:"listening" yaml:"listening"`
	Established     int `json:"established" yaml:"established"`
	Closed          int `json:"closed" yaml:"closed"`
	Other           int `json:"other" yaml:"other"`
	UniqueProcesses int `json:"unique_processes" yaml:"unique_processes"`
	UniqueUsers     int `json:"unique_users" yaml:"unique_users"`
	UniquePorts     int `json:"unique_ports" yaml:"unique_ports"`
	ParseFailures   int `json:"parse_failures" yaml:"parse_failures"`
	SkippedLines    int `json:"skipped_lines" yaml:"skipped_lines"`
}

// Rating is a coarse band derived from the score.
type Rating string

const (
	RatingGood           Rating = "GOOD"
	RatingModerate       Rating = "MODERATE"
	RatingNeedsAttention Rating = "NEEDS ATTENTION"
)
