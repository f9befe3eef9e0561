// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/rules"
	"github.com/netwatch/netwatch/pkg/runner"
	"github.com/netwatch/netwatch/pkg/watch"
)

const listing = "redis-ser 812 root 6u IPv4 0x1 0t0 TCP *:6379 (LISTEN)\n" +
	"sshd 501 alice 3u IPv4 0x2 0t0 TCP 127.0.0.1:22 (LISTEN)\n"

func snapshot(t *testing.T, seq int, text string) SnapshotMsg {
	t.Helper()
	e, err := analysis.NewEngine(rules.Default())
	require.NoError(t, err)
	return SnapshotMsg(watch.Snapshot{
		Seq:     seq,
		At:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Trigger: watch.TriggerInterval,
		Result:  &runner.Result{Status: runner.StatusCompleted, Report: e.Analyze(text)},
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestRows(t *testing.T) {
	rep := snapshot(t, 1, listing).Result.Report
	rows := Rows(rep)

	require.Len(t, rows, len(rep.Findings))
	assert.Equal(t, "CRITICAL", rows[0][0])
	assert.Equal(t, "redis-ser", rows[0][1])
	assert.Equal(t, "812", rows[0][2])
	assert.Equal(t, "TCP *:6379", rows[0][4])
	assert.Contains(t, rows[0][5], "Redis")
	assert.Contains(t, rows[0][5], "all interfaces")
}

func TestModel_Snapshots(t *testing.T) {
	m := New("file")
	assert.Contains(t, m.View(), "Collecting first snapshot")

	m, cmd := update(t, m, snapshot(t, 1, listing))
	assert.Nil(t, cmd)
	require.NotNil(t, m.Report())
	assert.Equal(t, 1, m.Passes())
	assert.Contains(t, m.View(), "88/100 GOOD")
	assert.Contains(t, m.View(), "pass 1 (interval) at 12:00:00")

	m, _ = update(t, m, snapshot(t, 2, "sshd 501 alice 3u IPv4 0x2 0t0 TCP 127.0.0.1:22 (LISTEN)\n"))
	assert.Equal(t, 100, m.Report().Score)
	assert.Contains(t, m.View(), "since last pass: score 88 -> 100")
}

func TestModel_FailedPassKeepsLastReport(t *testing.T) {
	m := New("lsof")
	m, _ = update(t, m, snapshot(t, 1, listing))
	m, _ = update(t, m, SnapshotMsg(watch.Snapshot{Seq: 2, Err: analysis.ErrPermissionDenied}))

	require.NotNil(t, m.Report())
	assert.ErrorIs(t, m.Err(), analysis.ErrPermissionDenied)
	assert.Contains(t, m.View(), "last pass failed")

	m, _ = update(t, m, snapshot(t, 3, listing))
	assert.NoError(t, m.Err())
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []string{"q", "esc"} {
		var msg tea.KeyMsg
		if key == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := update(t, New("lsof"), msg)
		require.NotNil(t, cmd, key)
		assert.IsType(t, tea.QuitMsg{}, cmd(), key)
	}
}

func TestModel_WindowSize(t *testing.T) {
	m, _ := update(t, New("lsof"), tea.WindowSizeMsg{Width: 160, Height: 40})
	assert.Equal(t, 160, m.width)
	assert.Equal(t, 40, m.height)
	assert.Equal(t, 160-64, m.table.Columns()[5].Width)
}

type fakeRunner struct{}

func (fakeRunner) Run(context.Context) (*runner.Result, error) {
	return nil, errors.New("unreachable")
}

func TestRun_MonitorErrorStopsProgram(t *testing.T) {
	mon := watch.NewMonitor(fakeRunner{}, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	err := Run(ctx, mon, "file", nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
}
