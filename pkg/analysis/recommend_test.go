// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommend_NoFindings(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, []string{NoIssuesMessage}, e.Recommend(100, nil))
	assert.Equal(t, []string{NoIssuesMessage}, e.Recommend(10, []Finding{}))
}

func TestRecommend_OrderedBySeverity(t *testing.T) {
	e := newTestEngine(t)
	findings := []Finding{
		{Kind: KindExposure, Record: listener("app", "root", "127.0.0.1", 9000), Tier: TierMedium, RootHighPort: true},
		{Kind: KindExposure, Record: listener("sshd", "alice", "*", 22), Tier: TierHigh, Wildcard: true},
		{Kind: KindExposure, Record: listener("mongod", "mongo", "*", 27017), Tier: TierCritical, Wildcard: true},
	}

	got := e.Recommend(50, findings)
	assert.Equal(t, []string{
		AdviceMongoAuth,
		AdviceCritical,
		AdviceDatabase,
		AdviceRemoteAccess,
		AdviceBindLocalhost,
		AdviceRootHighPort,
		AdviceFirewall,
	}, got)
}

func TestRecommend_Deduplicates(t *testing.T) {
	e := newTestEngine(t)
	f := Finding{Kind: KindExposure, Record: listener("postgres", "_pg", "*", 5432), Tier: TierHigh, Wildcard: true}

	got := e.Recommend(80, []Finding{f, f, f})
	assert.Equal(t, []string{AdviceDatabase, AdviceBindLocalhost}, got)
}

func TestRecommend_FallbackForUnmatchedFindings(t *testing.T) {
	e := newTestEngine(t)
	f := Finding{Kind: KindExposure, Record: listener("custom", "bob", "127.0.0.1", 7777), Tier: TierMedium, Rule: "custom"}

	assert.Equal(t, []string{AdviceReviewFlagged}, e.Recommend(100, []Finding{f}))
}
