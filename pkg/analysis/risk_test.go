// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatch/netwatch/pkg/listing"
	"github.com/netwatch/netwatch/pkg/rules"
)

func listener(name, user, addr string, port int) listing.ConnectionRecord {
	return listing.ConnectionRecord{
		ProcessName:  name,
		PID:          100,
		User:         user,
		Protocol:     listing.ProtocolTCP,
		LocalAddress: addr,
		LocalPort:    port,
		State:        listing.StateListen,
	}
}

func TestAssessor_RulePrecedence(t *testing.T) {
	a, err := NewAssessor(rules.Default())
	require.NoError(t, err)

	tests := []struct {
		name      string
		rec       listing.ConnectionRecord
		tier      RiskTier
		rule      string
		escalated bool
	}{
		{"redis wildcard", listener("redis-ser", "redis", "*", 6379), TierCritical, "no-auth-exposed", false},
		{"mongo wildcard", listener("mongod", "mongo", "0.0.0.0", 27017), TierCritical, "no-auth-exposed", false},
		{"telnet wildcard", listener("telnetd", "nobody", "::", 23), TierCritical, "no-auth-exposed", false},
		{"redis loopback", listener("redis-ser", "redis", "127.0.0.1", 6379), TierLow, "", false},
		{"ssh wildcard", listener("sshd", "alice", "*", 22), TierHigh, "remote-access-exposed", false},
		{"rdp wildcard", listener("rdp", "alice", "*", 3389), TierHigh, "remote-access-exposed", false},
		{"postgres wildcard", listener("postgres", "_pg", "*", 5432), TierHigh, "remote-access-exposed", false},
		{"mysql loopback", listener("mysqld", "mysql", "127.0.0.1", 3306), TierLow, "", false},
		{"http loopback", listener("nginx", "www", "127.0.0.1", 80), TierMedium, "system-service", false},
		{"nfs wildcard as root", listener("nfsd", "root", "*", 2049), TierHigh, "system-service", true},
		{"dev port wildcard", listener("java", "bob", "*", 8000), TierMedium, "dev-server-exposed", false},
		{"dev process wildcard", listener("node", "bob", "*", 5000), TierMedium, "dev-server-exposed", false},
		{"dev process loopback", listener("node", "bob", "127.0.0.1", 5000), TierLow, "", false},
		{"unknown", listener("mystery", "bob", "*", 9999), TierLow, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Assess(tt.rec)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.rule, got.Rule)
			assert.Equal(t, tt.escalated, got.Escalated)
		})
	}
}

func TestAssessor_RootEscalation(t *testing.T) {
	a, err := NewAssessor(rules.Default())
	require.NoError(t, err)

	tests := []struct {
		name string
		rec  listing.ConnectionRecord
		tier RiskTier
	}{
		{"low becomes medium", listener("mystery", "root", "127.0.0.1", 9999), TierMedium},
		{"medium becomes high", listener("node", "root", "*", 3000), TierHigh},
		{"high stays high", listener("postgres", "root", "*", 5432), TierHigh},
		{"critical stays critical", listener("redis-ser", "root", "*", 6379), TierCritical},
		{"privileged port not escalated", listener("cupsd", "root", "127.0.0.1", 631), TierLow},
		{"ceiling is exclusive", listener("svc", "root", "127.0.0.1", 1024), TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tier, a.Risk(tt.rec))
		})
	}
}

func TestAssessor_ClientSocketsNotEscalated(t *testing.T) {
	a, err := NewAssessor(rules.Default())
	require.NoError(t, err)

	rec := listing.ConnectionRecord{
		ProcessName:   "curl",
		PID:           5,
		User:          "root",
		Protocol:      listing.ProtocolTCP,
		LocalAddress:  "10.0.0.2",
		LocalPort:     50123,
		RemoteAddress: "1.1.1.1",
		RemotePort:    443,
		State:         listing.StateEstablished,
	}
	assert.False(t, a.IsRootHighPort(rec))
	assert.Equal(t, TierLow, a.Risk(rec))
}

func TestAssessor_CustomRuleOrder(t *testing.T) {
	r := rules.Default()
	r.RiskRules = append([]rules.RiskRule{
		{Name: "ssh-anywhere", Classes: []rules.PortClass{rules.ClassRemoteAccess}, Tier: "CRITICAL"},
	}, r.RiskRules...)

	a, err := NewAssessor(r)
	require.NoError(t, err)

	got := a.Assess(listener("sshd", "alice", "127.0.0.1", 22))
	assert.Equal(t, TierCritical, got.Tier)
	assert.Equal(t, "ssh-anywhere", got.Rule)
}

func TestRiskTier_Text(t *testing.T) {
	for _, tier := range []RiskTier{TierLow, TierMedium, TierHigh, TierCritical} {
		b, err := tier.MarshalText()
		require.NoError(t, err)

		var back RiskTier
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, tier, back)
	}

	_, err := ParseTier("severe")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "RiskTier(9)", RiskTier(9).String())
	assert.True(t, TierCritical > TierHigh)
}
