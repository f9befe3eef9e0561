// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"sort"

	"github.com/netwatch/netwatch/pkg/listing"
)

// serviceKey identifies a service independently of the address family and
// of how many sockets it holds.
type serviceKey struct {
	name     string
	port     int
	protocol listing.Protocol
}

func keyOf(rec listing.ConnectionRecord) serviceKey {
	return serviceKey{name: rec.ProcessName, port: rec.LocalPort, protocol: rec.Protocol}
}

// Score computes the security score and the findings for records.
//
// Starting from the baseline weight it deducts, once per distinct service,
// the wildcard-listener weight and the root-high-port weight, and the
// suspicious-port weight for every record on a suspicious local port. The
// result is clamped to [0, 100]. Findings are sorted by tier, most severe
// first, then by descending port.
func (e *Engine) Score(records []listing.ConnectionRecord) (int, []Finding) {
	w := e.rules.Weights
	score := w.Baseline

	wildcard := map[serviceKey]bool{}
	rootHigh := map[serviceKey]bool{}
	findings := make([]Finding, 0)

	for _, rec := range records {
		f := Finding{
			Kind:       KindExposure,
			Record:     rec,
			Suspicious: e.suspicious[rec.LocalPort],
		}
		if f.Suspicious {
			score -= w.SuspiciousPort
		}
		if !rec.IsService() && !f.Suspicious {
			continue
		}

		key := keyOf(rec)
		if rec.IsListening() && rec.IsWildcard() {
			f.Wildcard = true
			if !wildcard[key] {
				wildcard[key] = true
				score -= w.WildcardListener
			}
		}
		if e.assessor.IsRootHighPort(rec) {
			f.RootHighPort = true
			if !rootHigh[key] {
				rootHigh[key] = true
				score -= w.RootHighPort
			}
		}

		a := e.assessor.Assess(rec)
		if a.Tier < TierMedium && !f.Wildcard && !f.RootHighPort && !f.Suspicious {
			continue
		}
		f.Tier, f.Rule, f.Escalated = a.Tier, a.Rule, a.Escalated
		f.Category = e.categorizer.Categorize(rec)
		f.Service = e.PortName(rec.LocalPort)
		findings = append(findings, f)
	}

	findings = append(findings, e.portConflicts(records)...)
	sortFindings(findings)

	return clamp(score), findings
}

// portConflicts reports local ports held by more than one process. Only
// bound services are considered; accepted connections legitimately share the
// listener's port.
func (e *Engine) portConflicts(records []listing.ConnectionRecord) []Finding {
	type portKey struct {
		protocol listing.Protocol
		port     int
	}
	first := map[portKey]listing.ConnectionRecord{}
	pids := map[portKey][]int{}
	var order []portKey

	for _, rec := range records {
		if !rec.IsService() {
			continue
		}
		k := portKey{rec.Protocol, rec.LocalPort}
		if _, ok := first[k]; !ok {
			first[k] = rec
			order = append(order, k)
		}
		if !containsInt(pids[k], rec.PID) {
			pids[k] = append(pids[k], rec.PID)
		}
	}

	var out []Finding
	for _, k := range order {
		if len(pids[k]) < 2 {
			continue
		}
		rec := first[k]
		ids := append([]int(nil), pids[k]...)
		sort.Ints(ids)
		out = append(out, Finding{
			Kind:     KindPortConflict,
			Record:   rec,
			Category: e.categorizer.Categorize(rec),
			Tier:     TierMedium,
			Service:  e.PortName(rec.LocalPort),
			Wildcard: rec.IsListening() && rec.IsWildcard(),
			PIDs:     ids,
		})
	}
	return out
}

func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Tier != findings[j].Tier {
			return findings[i].Tier > findings[j].Tier
		}
		return findings[i].Port() > findings[j].Port()
	})
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
