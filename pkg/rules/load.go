// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package rules

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"

	"github.com/netwatch/netwatch/pkg/version"
)

// ErrInvalidRules is returned when a rule set fails to load or validate.
var ErrInvalidRules = errors.New("invalid rules")

var validate = validator.New()

var knownCategories = map[string]bool{
	"system": true, "development": true, "file_sharing": true, "communication": true,
	"database": true, "media": true, "browsers": true, "productivity": true,
}

// Load overlays the YAML rules file at path on top of Default. Scalars and
// lists in the file replace the defaults; map entries (port names, port
// categories, port classes) are merged key by key.
func Load(path string) (*Rules, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Default().asMap(), ""), nil); err != nil {
		return nil, fmt.Errorf("load default rules: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidRules, path, err)
	}
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Rules, error) {
	var out Rules
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	var err error
	if out.PortCategories, err = portKeyed(k.StringMap("port_categories")); err != nil {
		return nil, fmt.Errorf("%w: port_categories: %v", ErrInvalidRules, err)
	}
	if out.PortNames, err = portKeyed(k.StringMap("port_names")); err != nil {
		return nil, fmt.Errorf("%w: port_names: %v", ErrInvalidRules, err)
	}

	if err := Validate(&out); err != nil {
		return nil, err
	}
	if err := CheckCompatibility(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// portKeyed converts YAML map keys, which arrive as strings, into ports.
func portKeyed(in map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(in))
	for key, v := range in {
		port, err := cast.ToIntE(key)
		if err != nil {
			return nil, fmt.Errorf("key %q is not a port", key)
		}
		if port < 0 || port > 65535 {
			return nil, fmt.Errorf("port %d out of range", port)
		}
		out[port] = v
	}
	return out, nil
}

// Validate checks struct constraints and the cross-field rules the tags
// cannot express.
func Validate(r *Rules) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	for class, ports := range r.PortClasses {
		switch class {
		case ClassNoAuth, ClassRemoteAccess, ClassDatabase, ClassSystem, ClassDevelopment:
		default:
			return fmt.Errorf("%w: unknown port class %q", ErrInvalidRules, class)
		}
		for _, p := range ports {
			if p < 0 || p > 65535 {
				return fmt.Errorf("%w: port class %s: port %d out of range", ErrInvalidRules, class, p)
			}
		}
	}

	for port, cat := range r.PortCategories {
		if !knownCategories[cat] {
			return fmt.Errorf("%w: port %d: unknown category %q", ErrInvalidRules, port, cat)
		}
	}

	for _, rr := range r.RiskRules {
		if len(rr.Classes) == 0 && !rr.DevProcess {
			return fmt.Errorf("%w: risk rule %q matches nothing", ErrInvalidRules, rr.Name)
		}
	}
	return nil
}

// CheckCompatibility verifies the optional Requires constraint against the
// running version.
func CheckCompatibility(r *Rules) error {
	if r.Requires == "" {
		return nil
	}
	ok, err := version.Satisfies(r.Requires)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if !ok {
		return fmt.Errorf("%w: rules require netwatch %s, running %s", ErrInvalidRules, r.Requires, version.Version)
	}
	return nil
}

// asMap renders the rule set as the nested map koanf's confmap provider
// expects.
func (r *Rules) asMap() map[string]interface{} {
	cats := make([]interface{}, 0, len(r.Categories))
	for _, c := range r.Categories {
		cats = append(cats, map[string]interface{}{
			"category": c.Category,
			"patterns": toIfaceSlice(c.Patterns),
		})
	}

	rrs := make([]interface{}, 0, len(r.RiskRules))
	for _, rr := range r.RiskRules {
		classes := make([]interface{}, 0, len(rr.Classes))
		for _, c := range rr.Classes {
			classes = append(classes, string(c))
		}
		rrs = append(rrs, map[string]interface{}{
			"name":        rr.Name,
			"classes":     classes,
			"dev_process": rr.DevProcess,
			"wildcard":    rr.Wildcard,
			"tier":        rr.Tier,
		})
	}

	classes := make(map[string]interface{}, len(r.PortClasses))
	for class, ports := range r.PortClasses {
		classes[string(class)] = toIfaceSlice(ports)
	}

	return map[string]interface{}{
		"requires":                r.Requires,
		"categories":              cats,
		"port_categories":         stringKeyed(r.PortCategories),
		"port_classes":            classes,
		"risk_rules":              rrs,
		"dev_processes":           toIfaceSlice(r.DevProcesses),
		"suspicious_ports":        toIfaceSlice(r.SuspiciousPorts),
		"privileged_users":        toIfaceSlice(r.PrivilegedUsers),
		"privileged_port_ceiling": r.PrivilegedPortCeiling,
		"weights": map[string]interface{}{
			"baseline":          r.Weights.Baseline,
			"wildcard_listener": r.Weights.WildcardListener,
			"suspicious_port":   r.Weights.SuspiciousPort,
			"root_high_port":    r.Weights.RootHighPort,
		},
		"thresholds": map[string]interface{}{
			"good":      r.Thresholds.Good,
			"moderate":  r.Thresholds.Moderate,
			"attention": r.Thresholds.Attention,
		},
		"port_names":       stringKeyed(r.PortNames),
		"private_networks": toIfaceSlice(r.PrivateNetworks),
	}
}

func stringKeyed(m map[int]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for p, v := range m {
		out[strconv.Itoa(p)] = v
	}
	return out
}

func toIfaceSlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
