// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/netwatch/netwatch/pkg/analysis"
)

// DefaultLsofArgs lists internet sockets with numeric hosts and ports.
var DefaultLsofArgs = []string{"-i", "-n", "-P"}

// Lsof runs the lsof utility.
type Lsof struct {
	Path    string
	Args    []string
	Timeout time.Duration

	logger zerolog.Logger
}

// NewLsof returns an lsof source. An empty path means "lsof" on $PATH.
func NewLsof(path string, timeout time.Duration, logger zerolog.Logger) *Lsof {
	if path == "" {
		path = "lsof"
	}
	return &Lsof{
		Path:    path,
		Args:    append([]string(nil), DefaultLsofArgs...),
		Timeout: timeout,
		logger:  logger,
	}
}

func (l *Lsof) Name() string { return KindLsof }

// Collect runs lsof and returns its stdout.
//
// lsof exits with status 1 and prints nothing when no socket matched; that is
// an empty listing, not a failure.
func (l *Lsof) Collect(ctx context.Context) (string, error) {
	bin, err := exec.LookPath(l.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found: %v", analysis.ErrSourceUnavailable, l.Path, err)
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, l.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	l.logger.Debug().
		Str("path", bin).
		Strs("args", l.Args).
		Dur("took", time.Since(start)).
		Int("bytes", stdout.Len()).
		Msg("lsof finished")

	if err == nil {
		if stderr.Len() > 0 {
			l.logger.Debug().Str("stderr", strings.TrimSpace(stderr.String())).Msg("lsof reported warnings")
		}
		return stdout.String(), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", transient(fmt.Errorf("%w: lsof: %v", analysis.ErrSourceUnavailable, ctxErr))
	}

	msg := strings.TrimSpace(stderr.String())
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 1 && stdout.Len() == 0 && msg == "" {
			return "", nil
		}
		if isPermissionMessage(msg) {
			return "", fmt.Errorf("%w: lsof: %s", analysis.ErrPermissionDenied, msg)
		}
		if stdout.Len() > 0 {
			// Partial listings are common for unprivileged users.
			l.logger.Warn().Int("exit_code", exitErr.ExitCode()).Str("stderr", msg).Msg("lsof exited with an error, using partial output")
			return stdout.String(), nil
		}
		return "", transient(fmt.Errorf("%w: lsof exited with status %d: %s", analysis.ErrSourceUnavailable, exitErr.ExitCode(), msg))
	}
	return "", fmt.Errorf("%w: lsof: %v", analysis.ErrSourceUnavailable, err)
}

func isPermissionMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "permission denied") || strings.Contains(m, "operation not permitted")
}
