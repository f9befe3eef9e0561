// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package tui is the live dashboard behind `netwatch watch --tui`.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/render"
	"github.com/netwatch/netwatch/pkg/stringutil"
	"github.com/netwatch/netwatch/pkg/watch"
)

var (
	baseStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	ratingStyles = map[analysis.Rating]lipgloss.Style{
		analysis.RatingGood:           lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		analysis.RatingModerate:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		analysis.RatingNeedsAttention: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
)

// SnapshotMsg delivers a monitor snapshot to the model.
type SnapshotMsg watch.Snapshot

type monitorDoneMsg struct{ err error }

// Model is the bubbletea model of the dashboard.
type Model struct {
	source   string
	table    table.Model
	report   *analysis.SecurityReport
	previous *analysis.SecurityReport
	last     watch.Snapshot
	passes   int
	err      error
	fatal    error
	width    int
	height   int
}

// New returns an empty dashboard for the named source.
func New(source string) Model {
	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	return Model{source: source, table: t}
}

func columns(width int) []table.Column {
	notes := 36
	if width > 100 {
		notes = width - 64
	}
	return []table.Column{
		{Title: "Tier", Width: 9},
		{Title: "Process", Width: 16},
		{Title: "PID", Width: 7},
		{Title: "User", Width: 10},
		{Title: "Endpoint", Width: 22},
		{Title: "Notes", Width: notes},
	}
}

// Rows turns report findings into table rows, most severe first.
func Rows(report analysis.SecurityReport) []table.Row {
	rows := make([]table.Row, 0, len(report.Findings))
	for _, tier := range []analysis.RiskTier{analysis.TierCritical, analysis.TierHigh, analysis.TierMedium, analysis.TierLow} {
		for _, f := range report.FindingsByTier(tier) {
			notes := render.Notes(f)
			if f.Service != "" {
				notes = append([]string{f.Service}, notes...)
			}
			rows = append(rows, table.Row{
				f.Tier.String(),
				stringutil.Ellipsis(stringutil.UnescapeProcessName(f.ProcessName()), 16),
				strconv.Itoa(f.Record.PID),
				f.Record.User,
				render.Endpoint(f.Record),
				strings.Join(notes, "; "),
			})
		}
	}
	return rows
}

// Report returns the latest report shown, if any.
func (m Model) Report() *analysis.SecurityReport { return m.report }

// Passes returns how many snapshots the model received.
func (m Model) Passes() int { return m.passes }

// Err returns the error of the latest failed pass.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width))
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case SnapshotMsg:
		snap := watch.Snapshot(msg)
		m.passes++
		m.last = snap
		if snap.Err != nil {
			m.err = snap.Err
			return m, nil
		}
		m.err = nil
		if rep := snap.Report(); rep != nil {
			m.previous = m.report
			m.report = rep
			m.table.SetRows(Rows(*rep))
		}
		return m, nil

	case monitorDoneMsg:
		m.fatal = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("NetWatch") + "  " + helpStyle.Render("source "+m.source) + "\n\n")

	switch {
	case m.report == nil && m.err == nil:
		b.WriteString("Collecting first snapshot...\n")
	case m.report != nil:
		r := m.report
		style, ok := ratingStyles[r.Rating]
		if !ok {
			style = lipgloss.NewStyle().Bold(true)
		}
		b.WriteString(style.Render(fmt.Sprintf("%d/100 %s", r.Score, r.Rating)))
		b.WriteString("  " + render.Compact(*r) + "\n")
		if m.previous != nil {
			b.WriteString(helpStyle.Render("since last pass: "+render.Delta(*m.previous, *r)) + "\n")
		} else {
			b.WriteString("\n")
		}
		if len(r.Recommendations) > 0 {
			b.WriteString("Top recommendation: " + r.Recommendations[0] + "\n")
		}
	}
	b.WriteString(baseStyle.Render(m.table.View()) + "\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("last pass failed: "+m.err.Error()) + "\n")
	}
	if m.passes > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf("pass %d (%s) at %s", m.last.Seq, m.last.Trigger, m.last.At.Format(time.TimeOnly))) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ scroll • q quit") + "\n")
	return b.String()
}

// Run shows the dashboard fed by mon until the user quits or ctx is
// canceled.
func Run(ctx context.Context, mon *watch.Monitor, source string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(source),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	go func() {
		err := mon.Run(ctx, func(s watch.Snapshot) {
			p.Send(SnapshotMsg(s))
		})
		if err != nil {
			p.Send(monitorDoneMsg{err: err})
		}
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.fatal
	}
	return nil
}
