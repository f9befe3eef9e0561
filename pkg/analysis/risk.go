// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"strings"

	"github.com/netwatch/netwatch/pkg/listing"
	"github.com/netwatch/netwatch/pkg/rules"
)

// riskRule is the compiled form of rules.RiskRule.
type riskRule struct {
	name       string
	ports      map[int]bool
	devProcess bool
	wildcard   bool
	tier       RiskTier
}

func (r riskRule) matches(rec listing.ConnectionRecord, isDev func(string) bool) bool {
	if r.wildcard && !rec.IsWildcard() {
		return false
	}
	if r.ports[rec.LocalPort] {
		return true
	}
	return r.devProcess && isDev(rec.ProcessName)
}

// Assessment is the outcome of risk assessment for one record.
type Assessment struct {
	Tier RiskTier
	// Rule is the name of the first matching rule, empty for the fallback tier.
	Rule string
	// Escalated is set when privilege escalation raised the tier.
	Escalated bool
}

// Assessor evaluates the ordered risk rule list. The first matching rule
// decides the base tier; root-owned services above the privileged port
// ceiling are then raised one tier, never past HIGH.
type Assessor struct {
	rules      []riskRule
	devNames   []string
	privileged map[string]bool
	ceiling    int
}

// NewAssessor compiles the risk rules of r.
func NewAssessor(r *rules.Rules) (*Assessor, error) {
	a := &Assessor{
		privileged: make(map[string]bool, len(r.PrivilegedUsers)),
		ceiling:    r.PrivilegedPortCeiling,
	}
	for _, rr := range r.RiskRules {
		tier, err := ParseTier(rr.Tier)
		if err != nil {
			return nil, WithErrorCode(err, ErrorCodeInvalidRules)
		}
		compiled := riskRule{
			name:       rr.Name,
			ports:      map[int]bool{},
			devProcess: rr.DevProcess,
			wildcard:   rr.Wildcard,
			tier:       tier,
		}
		for _, class := range rr.Classes {
			for _, p := range r.PortClasses[class] {
				compiled.ports[p] = true
			}
		}
		a.rules = append(a.rules, compiled)
	}
	for _, d := range r.DevProcesses {
		a.devNames = append(a.devNames, normalizeName(d))
	}
	for _, u := range r.PrivilegedUsers {
		a.privileged[u] = true
	}
	return a, nil
}

// Risk returns only the tier of rec.
func (a *Assessor) Risk(rec listing.ConnectionRecord) RiskTier {
	return a.Assess(rec).Tier
}

// Assess returns the tier of rec along with the rule that produced it.
func (a *Assessor) Assess(rec listing.ConnectionRecord) Assessment {
	out := Assessment{Tier: TierLow}
	for _, r := range a.rules {
		if r.matches(rec, a.IsDevProcess) {
			out.Tier, out.Rule = r.tier, r.name
			break
		}
	}

	if a.IsRootHighPort(rec) && out.Tier < TierHigh {
		out.Tier++
		out.Escalated = true
	}
	return out
}

// IsDevProcess reports whether name looks like a development server.
func (a *Assessor) IsDevProcess(name string) bool {
	n := normalizeName(name)
	for _, d := range a.devNames {
		if strings.Contains(n, d) {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether user is a privileged account.
func (a *Assessor) IsPrivileged(user string) bool {
	return a.privileged[user]
}

// IsRootHighPort reports whether rec is a service owned by a privileged user
// on a port above the privileged ceiling. Client sockets are not services and
// never qualify, since their local ports are ephemeral.
func (a *Assessor) IsRootHighPort(rec listing.ConnectionRecord) bool {
	return rec.IsService() && a.IsPrivileged(rec.User) && rec.LocalPort > a.ceiling
}
