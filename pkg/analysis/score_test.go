// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/listing"
)

func parseRecords(t *testing.T, ls ...string) []listing.ConnectionRecord {
	t.Helper()
	res := listing.Parse(lines(ls...))
	require.Zero(t, res.Failures)
	return res.Records
}

func TestScore_DistinctServiceCountedOnce(t *testing.T) {
	e := newTestEngine(t)
	recs := parseRecords(t,
		"redis-ser 812 root 6u IPv4 0x1 0t0 TCP *:6379 (LISTEN)",
		"redis-ser 812 root 7u IPv6 0x2 0t0 TCP *:6379 (LISTEN)",
	)

	score, findings := e.Score(recs)
	assert.Equal(t, 88, score)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, KindExposure, f.Kind)
		assert.True(t, f.Wildcard)
		assert.True(t, f.RootHighPort)
	}
}

func TestScore_SuspiciousPortPerRecord(t *testing.T) {
	e := newTestEngine(t)
	recs := parseRecords(t,
		"nc 4100 alice 3u IPv4 0x1 0t0 TCP 127.0.0.1:4444 (LISTEN)",
		"nc 4100 alice 4u IPv4 0x2 0t0 TCP 127.0.0.1:4444 (LISTEN)",
	)

	score, findings := e.Score(recs)
	assert.Equal(t, 90, score)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.True(t, f.Suspicious)
		assert.False(t, f.Wildcard)
	}
}

func TestScore_FindingOrderAndWeights(t *testing.T) {
	e := newTestEngine(t)
	recs := parseRecords(t,
		"sshd 90 root 3u IPv4 0x1 0t0 TCP *:22 (LISTEN)",
		"redis-ser 812 alice 6u IPv4 0x2 0t0 TCP *:6379 (LISTEN)",
		"mysqld 700 alice 9u IPv4 0x3 0t0 TCP *:3306 (LISTEN)",
	)

	score, findings := e.Score(recs)
	assert.Equal(t, 70, score)
	require.Len(t, findings, 3)

	got := make([]int, 0, len(findings))
	for _, f := range findings {
		got = append(got, f.Port())
	}
	assert.Equal(t, []int{6379, 3306, 22}, got)
	assert.Equal(t, TierCritical, findings[0].Tier)
	assert.Equal(t, TierHigh, findings[1].Tier)
	assert.Equal(t, TierHigh, findings[2].Tier)
}

func TestScore_NoConflictForSinglePID(t *testing.T) {
	e := newTestEngine(t)
	recs := parseRecords(t,
		"node 300 alice 20u IPv4 0x1 0t0 TCP 127.0.0.1:8080 (LISTEN)",
		"node 300 alice 21u IPv6 0x2 0t0 TCP [::1]:8080 (LISTEN)",
	)

	_, findings := e.Score(recs)
	for _, f := range findings {
		assert.NotEqual(t, KindPortConflict, f.Kind)
	}
}

func conflicts(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Kind == KindPortConflict {
			out = append(out, f)
		}
	}
	return out
}

func TestScore_PortConflictKeyedByProtocol(t *testing.T) {
	e := newTestEngine(t)

	// TCP and UDP sockets on one port number are separate bindings.
	recs := parseRecords(t,
		"mDNSRespo 310 _mdns 8u IPv4 0x1 0t0 UDP *:5353",
		"dnsmasq 400 alice 6u IPv4 0x2 0t0 TCP 127.0.0.1:5353 (LISTEN)",
	)
	_, findings := e.Score(recs)
	assert.Empty(t, conflicts(findings))

	recs = append(recs, parseRecords(t,
		"avahi-dae 500 avahi 12u IPv4 0x3 0t0 UDP *:5353",
	)...)
	_, findings = e.Score(recs)
	got := conflicts(findings)
	require.Len(t, got, 1)
	assert.Equal(t, listing.ProtocolUDP, got[0].Record.Protocol)
	assert.Equal(t, 5353, got[0].Port())
	assert.Equal(t, []int{310, 500}, got[0].PIDs)
	assert.Equal(t, TierMedium, got[0].Tier)
}
