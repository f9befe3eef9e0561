// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"strings"

	"github.com/netwatch/netwatch/pkg/listing"
	"github.com/netwatch/netwatch/pkg/rules"
	"github.com/netwatch/netwatch/pkg/stringutil"
)

type categoryTable struct {
	category Category
	patterns []string
}

// Categorizer assigns categories from process names, falling back to the
// local port of bound services.
type Categorizer struct {
	tables []categoryTable
	ports  map[int]Category
}

// NewCategorizer compiles the category tables of r.
func NewCategorizer(r *rules.Rules) *Categorizer {
	c := &Categorizer{
		tables: make([]categoryTable, 0, len(r.Categories)),
		ports:  make(map[int]Category, len(r.PortCategories)),
	}
	for _, t := range r.Categories {
		ct := categoryTable{category: Category(t.Category)}
		for _, p := range t.Patterns {
			ct.patterns = append(ct.patterns, normalizeName(p))
		}
		c.tables = append(c.tables, ct)
	}
	for port, cat := range r.PortCategories {
		c.ports[port] = Category(cat)
	}
	return c
}

// Categorize returns the category of rec. It never fails; unknown processes
// are CategoryUncategorized.
func (c *Categorizer) Categorize(rec listing.ConnectionRecord) Category {
	if cat, ok := c.ByName(rec.ProcessName); ok {
		return cat
	}
	if rec.IsService() {
		if cat, ok := c.ports[rec.LocalPort]; ok {
			return cat
		}
	}
	return CategoryUncategorized
}

// ByName matches a process name against the tables in priority order.
func (c *Categorizer) ByName(name string) (Category, bool) {
	n := normalizeName(name)
	if n == "" {
		return CategoryUncategorized, false
	}
	for _, t := range c.tables {
		for _, p := range t.patterns {
			if strings.Contains(n, p) {
				return t.category, true
			}
		}
	}
	return CategoryUncategorized, false
}

func normalizeName(s string) string {
	return strings.ToLower(stringutil.UnescapeProcessName(s))
}
