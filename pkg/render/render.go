// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package render turns a SecurityReport into the human-readable terminal
// report. Rendering never changes the report.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/listing"
	"github.com/netwatch/netwatch/pkg/stringutil"
)

// Options controls the text layout.
type Options struct {
	// Color enables ANSI styling. Styling is also dropped when the writer is
	// not a terminal.
	Color bool
	// Width is the ruler width; 0 means 72.
	Width int
	// MaxProcessName truncates long process names; 0 means 32.
	MaxProcessName int
}

type theme struct {
	title    lipgloss.Style
	section  lipgloss.Style
	subtle   lipgloss.Style
	ok       lipgloss.Style
	tiers    map[analysis.RiskTier]lipgloss.Style
	ratings  map[analysis.Rating]lipgloss.Style
	divider  lipgloss.Style
	emphasis lipgloss.Style
}

func newTheme(re *lipgloss.Renderer, color bool) theme {
	plain := re.NewStyle()
	if !color {
		return theme{
			title: plain, section: plain, subtle: plain, ok: plain,
			divider: plain, emphasis: plain,
			tiers:   map[analysis.RiskTier]lipgloss.Style{},
			ratings: map[analysis.Rating]lipgloss.Style{},
		}
	}
	return theme{
		title:    re.NewStyle().Bold(true).Foreground(lipgloss.Color("170")),
		section:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		subtle:   re.NewStyle().Foreground(lipgloss.Color("240")),
		ok:       re.NewStyle().Foreground(lipgloss.Color("42")),
		divider:  re.NewStyle().Foreground(lipgloss.Color("238")),
		emphasis: re.NewStyle().Bold(true),
		tiers: map[analysis.RiskTier]lipgloss.Style{
			analysis.TierCritical: re.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
			analysis.TierHigh:     re.NewStyle().Foreground(lipgloss.Color("209")),
			analysis.TierMedium:   re.NewStyle().Foreground(lipgloss.Color("214")),
			analysis.TierLow:      re.NewStyle().Foreground(lipgloss.Color("245")),
		},
		ratings: map[analysis.Rating]lipgloss.Style{
			analysis.RatingGood:           re.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
			analysis.RatingModerate:       re.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
			analysis.RatingNeedsAttention: re.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		},
	}
}

func (t theme) tier(tier analysis.RiskTier) lipgloss.Style {
	if s, ok := t.tiers[tier]; ok {
		return s
	}
	return t.emphasis
}

func (t theme) rating(r analysis.Rating) lipgloss.Style {
	if s, ok := t.ratings[r]; ok {
		return s
	}
	return t.emphasis
}

// Text writes the full report to w.
func Text(w io.Writer, report analysis.SecurityReport, opts Options) error {
	_, err := io.WriteString(w, renderReport(lipgloss.NewRenderer(w), report, opts))
	return err
}

// String renders the report without styling.
func String(report analysis.SecurityReport) string {
	var b strings.Builder
	_ = Text(&b, report, Options{})
	return b.String()
}

func renderReport(re *lipgloss.Renderer, r analysis.SecurityReport, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = 72
	}
	if opts.MaxProcessName <= 0 {
		opts.MaxProcessName = 32
	}
	th := newTheme(re, opts.Color)
	rule := th.divider.Render(strings.Repeat("=", opts.Width))

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	name := func(s string) string {
		return stringutil.Ellipsis(stringutil.UnescapeProcessName(s), opts.MaxProcessName)
	}

	line("%s", th.title.Render("NetWatch Security Report"))
	line("%s", rule)

	s := r.Summary
	line("")
	line("%s", th.section.Render("Summary"))
	line("  Connections:      %d", s.Total)
	line("  Listening:        %d", s.Listening)
	line("  Established:      %d", s.Established)
	line("  Closed:           %d", s.Closed)
	if s.Other > 0 {
		line("  Other:            %d", s.Other)
	}
	line("  Processes:        %d", s.UniqueProcesses)
	line("  Users:            %d", s.UniqueUsers)
	line("  Ports in use:     %d", s.UniquePorts)
	if s.ParseFailures > 0 {
		line("  %s", th.subtle.Render(fmt.Sprintf("Unparsed lines:   %d", s.ParseFailures)))
	}

	if len(r.Categories) > 0 {
		line("")
		line("%s", th.section.Render("Processes by Category"))
		for _, g := range r.Categories {
			names := make([]string, len(g.Processes))
			for i, p := range g.Processes {
				names[i] = name(p)
			}
			line("  %-15s %s", CategoryLabel(g.Category)+":", strings.Join(names, ", "))
		}
	}

	line("")
	line("%s", th.section.Render("Security Findings"))
	if r.Clean() {
		line("  %s", th.ok.Render("No risky services found"))
	}
	for _, tier := range []analysis.RiskTier{analysis.TierCritical, analysis.TierHigh, analysis.TierMedium, analysis.TierLow} {
		var exposures []analysis.Finding
		for _, f := range r.FindingsByTier(tier) {
			if f.Kind == analysis.KindExposure {
				exposures = append(exposures, f)
			}
		}
		if len(exposures) == 0 {
			continue
		}
		line("  %s", th.tier(tier).Render(fmt.Sprintf("%s (%d)", tier, len(exposures))))
		for _, f := range exposures {
			line("    - %s", describeFinding(f, name))
		}
	}

	conflicts := portConflicts(r.Findings)
	if len(conflicts) > 0 {
		line("")
		line("%s", th.section.Render("Port Conflicts"))
		for _, f := range conflicts {
			line("  - %s/%d held by %d processes (pids %s)", f.Record.Protocol, f.Port(), len(f.PIDs), joinInts(f.PIDs))
		}
	}

	if len(r.ExternalConnections) > 0 {
		line("")
		line("%s", th.section.Render("External Connections"))
		for _, c := range r.ExternalConnections {
			line("  - %s -> %s", name(c.ProcessName), c.Remote())
		}
	}

	line("")
	line("%s", th.section.Render("Security Score"))
	line("  %s", th.rating(r.Rating).Render(fmt.Sprintf("%d/100 %s", r.Score, r.Rating)))
	tc := r.TierCounts
	line("  %s", th.subtle.Render(fmt.Sprintf("critical %d, high %d, medium %d, low %d", tc.Critical, tc.High, tc.Medium, tc.Low)))

	line("")
	line("%s", th.section.Render("Recommendations"))
	for i, rec := range r.Recommendations {
		line("  %d. %s", i+1, rec)
	}
	line("%s", rule)
	return b.String()
}

func describeFinding(f analysis.Finding, name func(string) string) string {
	var b strings.Builder
	b.WriteString(name(f.ProcessName()))
	fmt.Fprintf(&b, " (pid %d, user %s) %s %s", f.Record.PID, f.Record.User, f.Record.Protocol, f.Record.Local())
	if f.Service != "" {
		fmt.Fprintf(&b, " [%s]", f.Service)
	}

	notes := Notes(f)
	if len(notes) > 0 {
		b.WriteString(" - ")
		b.WriteString(strings.Join(notes, "; "))
	}
	return b.String()
}

// Notes lists the flags raised on a finding in display order.
func Notes(f analysis.Finding) []string {
	var notes []string
	if f.Wildcard {
		notes = append(notes, "all interfaces")
	}
	if f.Escalated {
		notes = append(notes, "escalated: runs as "+f.Record.User)
	}
	if f.RootHighPort {
		notes = append(notes, "privileged user on high port")
	}
	if f.Suspicious {
		notes = append(notes, "suspicious port")
	}
	if f.Kind == analysis.KindPortConflict {
		notes = append(notes, fmt.Sprintf("port shared by pids %s", joinInts(f.PIDs)))
	}
	return notes
}

func portConflicts(findings []analysis.Finding) []analysis.Finding {
	var out []analysis.Finding
	for _, f := range findings {
		if f.Kind == analysis.KindPortConflict {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Port() < out[j].Port() })
	return out
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// CategoryLabel returns the display label of a category, e.g. "File Sharing".
func CategoryLabel(c analysis.Category) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Delta summarizes how cur differs from prev in one line, for watch mode.
func Delta(prev, cur analysis.SecurityReport) string {
	parts := []string{fmt.Sprintf("score %d", cur.Score)}
	if d := cur.Score - prev.Score; d != 0 {
		parts[0] = fmt.Sprintf("score %d -> %d (%+d)", prev.Score, cur.Score, d)
	}
	parts = append(parts,
		change("findings", len(prev.Findings), len(cur.Findings)),
		change("listening", prev.Summary.Listening, cur.Summary.Listening),
		change("established", prev.Summary.Established, cur.Summary.Established),
	)
	if cur.TierCounts.Critical > prev.TierCounts.Critical {
		parts = append(parts, fmt.Sprintf("%d new critical", cur.TierCounts.Critical-prev.TierCounts.Critical))
	}
	return strings.Join(parts, ", ")
}

func change(label string, before, after int) string {
	if before == after {
		return fmt.Sprintf("%s %d", label, after)
	}
	return fmt.Sprintf("%s %d -> %d", label, before, after)
}

// Compact renders a single status line: score, rating and tier counts.
func Compact(r analysis.SecurityReport) string {
	tc := r.TierCounts
	return fmt.Sprintf("%d/100 %s | critical %d high %d medium %d low %d | %d connections",
		r.Score, r.Rating, tc.Critical, tc.High, tc.Medium, tc.Low, r.Summary.Total)
}

// Endpoint formats a record's local endpoint with its protocol.
func Endpoint(rec listing.ConnectionRecord) string {
	return string(rec.Protocol) + " " + rec.Local()
}
