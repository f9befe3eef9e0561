// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"fmt"
	"net"

	"github.com/netwatch/netwatch/pkg/listing"
	"github.com/netwatch/netwatch/pkg/rules"
)

// Engine runs the analysis pipeline for one rule set. An Engine is read-only
// after construction and safe for concurrent use.
type Engine struct {
	rules       *rules.Rules
	categorizer *Categorizer
	assessor    *Assessor
	suspicious  map[int]bool
	classes     map[rules.PortClass]map[int]bool
	private     []*net.IPNet
}

// NewEngine validates r and compiles it into an Engine. The engine keeps its
// own copy of r.
func NewEngine(r *rules.Rules) (*Engine, error) {
	if r == nil {
		r = rules.Default()
	}
	if err := rules.Validate(r); err != nil {
		return nil, err
	}
	r = r.Clone()

	assessor, err := NewAssessor(r)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		rules:       r,
		categorizer: NewCategorizer(r),
		assessor:    assessor,
		suspicious:  make(map[int]bool, len(r.SuspiciousPorts)),
		classes:     make(map[rules.PortClass]map[int]bool, len(r.PortClasses)),
	}
	for _, p := range r.SuspiciousPorts {
		e.suspicious[p] = true
	}
	for class, ports := range r.PortClasses {
		set := make(map[int]bool, len(ports))
		for _, p := range ports {
			set[p] = true
		}
		e.classes[class] = set
	}
	for _, cidr := range r.PrivateNetworks {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("%w: private network %q: %v", rules.ErrInvalidRules, cidr, err)
		}
		e.private = append(e.private, n)
	}
	return e, nil
}

// MustNewEngine is NewEngine for rule sets known to be valid.
func MustNewEngine(r *rules.Rules) *Engine {
	e, err := NewEngine(r)
	if err != nil {
		panic(err)
	}
	return e
}

// Rules returns a copy of the engine's rule set.
func (e *Engine) Rules() *rules.Rules {
	return e.rules.Clone()
}

// Categorize returns the category of rec.
func (e *Engine) Categorize(rec listing.ConnectionRecord) Category {
	return e.categorizer.Categorize(rec)
}

// Risk returns the risk tier of rec.
func (e *Engine) Risk(rec listing.ConnectionRecord) RiskTier {
	return e.assessor.Risk(rec)
}

// Assess returns the risk assessment of rec.
func (e *Engine) Assess(rec listing.ConnectionRecord) Assessment {
	return e.assessor.Assess(rec)
}

// PortName returns the well-known service name for port, or "".
func (e *Engine) PortName(port int) string {
	return e.rules.PortNames[port]
}

// InClass reports whether port belongs to class.
func (e *Engine) InClass(port int, class rules.PortClass) bool {
	return e.classes[class][port]
}

// IsSuspicious reports whether port is on the suspicious list.
func (e *Engine) IsSuspicious(port int) bool {
	return e.suspicious[port]
}

// IsExternal reports whether addr is a routable address outside the
// configured private networks. Unparseable addresses are not external.
func (e *Engine) IsExternal(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil || ip.IsUnspecified() {
		return false
	}
	for _, n := range e.private {
		if n.Contains(ip) {
			return false
		}
	}
	return true
}

// Analyze parses text and builds a report.
func (e *Engine) Analyze(text string) SecurityReport {
	return e.AnalyzeResult(listing.Parse(text))
}

// AnalyzeResult builds a report from an already parsed listing.
func (e *Engine) AnalyzeResult(res listing.Result) SecurityReport {
	rep := e.AnalyzeRecords(res.Records)
	rep.Summary.ParseFailures = res.Failures
	rep.Summary.SkippedLines = res.Skipped
	return rep
}

// AnalyzeRecords builds a report from records.
func (e *Engine) AnalyzeRecords(records []listing.ConnectionRecord) SecurityReport {
	score, findings := e.Score(records)
	rating := e.Rate(score)
	return SecurityReport{
		Summary:             e.summarize(records),
		Score:               score,
		Rating:              rating,
		TierCounts:          countTiers(findings),
		Findings:            findings,
		Categories:          e.groupCategories(records),
		ExternalConnections: e.externalConnections(records),
		Recommendations:     e.Recommend(score, findings),
	}
}

// Rate maps a score to its rating band.
func (e *Engine) Rate(score int) Rating {
	switch {
	case score >= e.rules.Thresholds.Good:
		return RatingGood
	case score >= e.rules.Thresholds.Moderate:
		return RatingModerate
	default:
		return RatingNeedsAttention
	}
}
