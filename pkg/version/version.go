// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Masterminds/semver/v3"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of netwatch.
	Version = "dev"
	// Commit holds the commit netwatch was built from.
	Commit = "none"
	// BuildDate holds the build date of netwatch.
	BuildDate = "unknown"
	// StartDate holds the process start time.
	StartDate = time.Now()
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("NetWatch %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// IsRelease reports whether Version is a parseable semantic version.
func IsRelease() bool {
	_, err := semver.NewVersion(Version)
	return err == nil
}

// Satisfies reports whether the running version satisfies constraint.
// Development builds satisfy every constraint.
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	current, err := semver.NewVersion(Version)
	if err != nil {
		return true, nil
	}
	return c.Check(current), nil
}
