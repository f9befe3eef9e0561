// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"sort"

	"github.com/netwatch/netwatch/pkg/listing"
)

// TierCounts counts findings per tier.
type TierCounts struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
	Low      int `json:"low" yaml:"low"`
}

// CategoryGroup lists the distinct processes of one category.
type CategoryGroup struct {
	Category  Category `json:"category" yaml:"category"`
	Processes []string `json:"processes" yaml:"processes"`
}

// SecurityReport is the result of one analysis pass. It is built once and
// not modified afterwards; presentation code must treat it as read-only.
type SecurityReport struct {
	Summary             Summary                    `json:"summary" yaml:"summary"`
	Score               int                        `json:"score" yaml:"score"`
	Rating              Rating                     `json:"rating" yaml:"rating"`
	TierCounts          TierCounts                 `json:"tier_counts" yaml:"tier_counts"`
	Findings            []Finding                  `json:"findings" yaml:"findings"`
	Categories          []CategoryGroup            `json:"categories" yaml:"categories"`
	ExternalConnections []listing.ConnectionRecord `json:"external_connections" yaml:"external_connections"`
	Recommendations     []string                   `json:"recommendations" yaml:"recommendations"`
}

// FindingsByTier returns the findings of tier t in report order.
func (r SecurityReport) FindingsByTier(t RiskTier) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Tier == t {
			out = append(out, f)
		}
	}
	return out
}

// Clean reports whether the analysis found nothing to flag.
func (r SecurityReport) Clean() bool {
	return len(r.Findings) == 0
}

func (e *Engine) summarize(records []listing.ConnectionRecord) Summary {
	s := Summary{Total: len(records)}
	procs := map[string]bool{}
	users := map[string]bool{}
	ports := map[int]bool{}

	for _, rec := range records {
		switch rec.State {
		case listing.StateListen:
			s.Listening++
		case listing.StateEstablished:
			s.Established++
		case listing.StateClosed, listing.StateCloseWait:
			s.Closed++
		default:
			s.Other++
		}
		procs[rec.ProcessName] = true
		users[rec.User] = true
		if rec.IsService() {
			ports[rec.LocalPort] = true
		}
	}
	s.UniqueProcesses = len(procs)
	s.UniqueUsers = len(users)
	s.UniquePorts = len(ports)
	return s
}

func (e *Engine) groupCategories(records []listing.ConnectionRecord) []CategoryGroup {
	byCat := map[Category]map[string]bool{}
	for _, rec := range records {
		cat := e.categorizer.Categorize(rec)
		if byCat[cat] == nil {
			byCat[cat] = map[string]bool{}
		}
		byCat[cat][rec.ProcessName] = true
	}

	out := make([]CategoryGroup, 0, len(byCat))
	for _, cat := range Categories {
		names, ok := byCat[cat]
		if !ok {
			continue
		}
		g := CategoryGroup{Category: cat, Processes: make([]string, 0, len(names))}
		for n := range names {
			g.Processes = append(g.Processes, n)
		}
		sort.Strings(g.Processes)
		out = append(out, g)
	}
	return out
}

func (e *Engine) externalConnections(records []listing.ConnectionRecord) []listing.ConnectionRecord {
	out := make([]listing.ConnectionRecord, 0)
	for _, rec := range records {
		if rec.State == listing.StateEstablished && e.IsExternal(rec.RemoteAddress) {
			out = append(out, rec)
		}
	}
	return out
}

func countTiers(findings []Finding) TierCounts {
	var c TierCounts
	for _, f := range findings {
		switch f.Tier {
		case TierCritical:
			c.Critical++
		case TierHigh:
			c.High++
		case TierMedium:
			c.Medium++
		default:
			c.Low++
		}
	}
	return c
}
