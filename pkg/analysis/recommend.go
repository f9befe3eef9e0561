// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"sort"

	"github.com/netwatch/netwatch/pkg/rules"
)

// NoIssuesMessage is the only recommendation of a report without findings.
const NoIssuesMessage = "No issues detected"

// Advisory messages. They are fixed strings so reports diff cleanly.
const (
	AdviceRedisAuth     = "Add authentication to Redis (requirepass) and bind it to 127.0.0.1"
	AdviceMongoAuth     = "Enable MongoDB authentication (security.authorization: enabled) and bind it to 127.0.0.1"
	AdviceTelnet        = "Disable Telnet and use SSH instead"
	AdviceElasticsearch = "Enable Elasticsearch security (xpack.security.enabled) and restrict network.host"
	AdviceCritical      = "Restrict or stop services flagged CRITICAL: they accept unauthenticated connections on every interface"
	AdviceDatabase      = "Ensure database has strong authentication and bind it to localhost"
	AdviceRemoteAccess  = "Use SSH keys instead of passwords, disable root login, and limit remote access to trusted networks"
	AdviceSuspicious    = "Investigate processes on ports associated with malware or backdoors"
	AdviceBindLocalhost = "Bind services to localhost/127.0.0.1 when possible"
	AdviceDevServer     = "Verify development servers aren't exposed in production"
	AdviceSystemService = "Review exposed system services (HTTP, RPC, NFS, SMB) and disable those you do not use"
	AdvicePortConflict  = "Investigate ports bound by more than one process"
	AdviceRootHighPort  = "Run services as unprivileged users; root is not needed for ports above 1024"
	AdviceFirewall      = "Consider using a firewall (pf/iptables) to restrict access"
	AdviceReviewFlagged = "Review the flagged services and close the ones you do not need"
)

// criticalPortAdvice holds service specific hardening for no-auth ports.
var criticalPortAdvice = map[int]string{
	6379:  AdviceRedisAuth,
	27017: AdviceMongoAuth,
	23:    AdviceTelnet,
	9200:  AdviceElasticsearch,
}

// condition is one triggering condition of the recommendation table.
type condition struct {
	severity RiskTier
	message  string
	applies  func(e *Engine, score int, findings []Finding) bool
}

func anyFinding(pred func(e *Engine, f Finding) bool) func(*Engine, int, []Finding) bool {
	return func(e *Engine, _ int, findings []Finding) bool {
		for _, f := range findings {
			if pred(e, f) {
				return true
			}
		}
		return false
	}
}

func criticalOnPort(port int) func(*Engine, int, []Finding) bool {
	return anyFinding(func(_ *Engine, f Finding) bool {
		return f.Kind == KindExposure && f.Tier == TierCritical && f.Port() == port
	})
}

// conditions is ordered by severity, most severe first; within a severity,
// table order decides.
var conditions = []condition{
	{TierCritical, criticalPortAdvice[6379], criticalOnPort(6379)},
	{TierCritical, criticalPortAdvice[27017], criticalOnPort(27017)},
	{TierCritical, criticalPortAdvice[23], criticalOnPort(23)},
	{TierCritical, criticalPortAdvice[9200], criticalOnPort(9200)},
	{TierCritical, AdviceCritical, anyFinding(func(_ *Engine, f Finding) bool {
		return f.Tier == TierCritical
	})},
	{TierHigh, AdviceDatabase, anyFinding(func(e *Engine, f Finding) bool {
		return f.Wildcard && e.InClass(f.Port(), rules.ClassDatabase)
	})},
	{TierHigh, AdviceRemoteAccess, anyFinding(func(e *Engine, f Finding) bool {
		return f.Wildcard && e.InClass(f.Port(), rules.ClassRemoteAccess)
	})},
	{TierHigh, AdviceSuspicious, anyFinding(func(_ *Engine, f Finding) bool {
		return f.Suspicious
	})},
	{TierMedium, AdviceBindLocalhost, anyFinding(func(_ *Engine, f Finding) bool {
		return f.Wildcard
	})},
	{TierMedium, AdviceDevServer, anyFinding(func(e *Engine, f Finding) bool {
		return f.Wildcard && (e.InClass(f.Port(), rules.ClassDevelopment) || e.assessor.IsDevProcess(f.ProcessName()))
	})},
	{TierMedium, AdviceSystemService, anyFinding(func(e *Engine, f Finding) bool {
		return f.Kind == KindExposure && e.InClass(f.Port(), rules.ClassSystem)
	})},
	{TierMedium, AdvicePortConflict, anyFinding(func(_ *Engine, f Finding) bool {
		return f.Kind == KindPortConflict
	})},
	{TierMedium, AdviceRootHighPort, anyFinding(func(_ *Engine, f Finding) bool {
		return f.RootHighPort
	})},
	{TierLow, AdviceFirewall, func(e *Engine, score int, _ []Finding) bool {
		return score < e.rules.Thresholds.Attention
	}},
}

// Recommend derives deduplicated advice from findings, most severe first.
// Without findings it returns the single NoIssuesMessage.
func (e *Engine) Recommend(score int, findings []Finding) []string {
	if len(findings) == 0 {
		return []string{NoIssuesMessage}
	}

	var matched []condition
	seen := map[string]bool{}
	for _, c := range conditions {
		if seen[c.message] || !c.applies(e, score, findings) {
			continue
		}
		seen[c.message] = true
		matched = append(matched, c)
	}
	if len(matched) == 0 {
		return []string{AdviceReviewFlagged}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].severity > matched[j].severity
	})
	out := make([]string, len(matched))
	for i, c := range matched {
		out[i] = c.message
	}
	return out
}
