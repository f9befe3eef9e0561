// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy defines how often and how fast a failed collection is retried.
type RetryPolicy struct {
	// MaxAttempts counts the first try; 0 and 1 both mean no retry.
	MaxAttempts int
	// InitialWait is the wait before the second attempt.
	InitialWait time.Duration
	// MaxWait caps the wait between attempts. Zero means no cap.
	MaxWait time.Duration
	// Multiplier grows the wait after each attempt (>= 1.0).
	Multiplier float64
	// Jitter adds up to ±25% randomness to each wait.
	Jitter bool
}

// DefaultRetryPolicy returns the policy used when configuration is silent.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// NoRetry returns a policy with a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Validate checks the policy for impossible values.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 0 {
		return fmt.Errorf("MaxAttempts must be >= 0, got %d", p.MaxAttempts)
	}
	if p.MaxAttempts <= 1 {
		return nil
	}
	if p.InitialWait < 0 {
		return fmt.Errorf("InitialWait must be >= 0, got %v", p.InitialWait)
	}
	if p.MaxWait < 0 {
		return fmt.Errorf("MaxWait must be >= 0, got %v", p.MaxWait)
	}
	if p.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be >= 1.0, got %f", p.Multiplier)
	}
	if p.MaxWait > 0 && p.InitialWait > p.MaxWait {
		return fmt.Errorf("InitialWait (%v) must be <= MaxWait (%v)", p.InitialWait, p.MaxWait)
	}
	return nil
}

// wait computes the pause before the given retry (1-based).
func (p RetryPolicy) wait(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	w := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(retry-1))
	if p.MaxWait > 0 && w > float64(p.MaxWait) {
		w = float64(p.MaxWait)
	}
	if p.Jitter {
		span := w * 0.25
		w += rand.Float64()*2*span - span
	}
	if w < 0 {
		w = 0
	}
	return time.Duration(w)
}

// transientError marks a failure worth retrying, such as a timed out or
// crashed lsof run.
type transientError struct{ error }

func (e transientError) Unwrap() error   { return e.error }
func (e transientError) Temporary() bool { return true }

func transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err}
}

// IsTransient reports whether err is worth retrying. A missing tool or a
// permission problem will not fix itself.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

type retrying struct {
	src    Source
	policy RetryPolicy
	logger zerolog.Logger
}

// WithRetry wraps src so transient failures are retried with exponential
// backoff. The caller's context bounds the total time spent.
func WithRetry(src Source, policy RetryPolicy, logger zerolog.Logger) Source {
	return &retrying{src: src, policy: policy, logger: logger}
}

func (r *retrying) Name() string { return r.src.Name() }

func (r *retrying) Collect(ctx context.Context) (string, error) {
	attempts := r.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.src.Collect(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == attempts {
			break
		}

		wait := r.policy.wait(attempt)
		r.logger.Warn().
			Err(err).
			Str("source", r.src.Name()).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("collection failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", lastErr
}
