// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// MemoryManager is an in-memory worker pool.
type MemoryManager struct {
	concurrency int
	queue       chan Job
	workers     []int
	wg          sync.WaitGroup
	cancelFunc  context.CancelFunc
	mu          sync.RWMutex
	started     bool
	logger      zerolog.Logger

	active    atomic.Int32
	processed atomic.Int64
	failed    atomic.Int64
}

// NewMemoryManager creates a manager with concurrency workers and a queue of
// queueSize jobs. Non-positive values fall back to 1 worker and 16 slots.
func NewMemoryManager(concurrency, queueSize int, logger zerolog.Logger) *MemoryManager {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	return &MemoryManager{
		concurrency: concurrency,
		queue:       make(chan Job, queueSize),
		logger:      logger.With().Str("component", "jobs").Logger(),
	}
}

// Start spawns the workers.
func (m *MemoryManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("job manager already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel

	m.workers = m.workers[:0]
	for i := 0; i < m.concurrency; i++ {
		m.wg.Add(1)
		m.workers = append(m.workers, i)
		go m.worker(workerCtx, i)
	}

	m.started = true
	m.logger.Info().Int("workers", m.concurrency).Msg("Job manager started")
	return nil
}

// Stop cancels the workers and waits for them, bounded by ctx.
func (m *MemoryManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.started = false
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info().Msg("Job manager stopped gracefully")
		return nil
	case <-ctx.Done():
		m.logger.Warn().Msg("Job manager shutdown timed out")
		return ctx.Err()
	}
}

// Submit queues job. It fails fast when the manager is stopped or the queue
// is full.
func (m *MemoryManager) Submit(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no function", job.ID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.started {
		return ErrNotStarted
	}
	select {
	case m.queue <- job:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, job.Type)
	}
}

// Status returns queue statistics.
func (m *MemoryManager) Status() Status {
	return Status{
		QueueDepth: len(m.queue),
		ActiveJobs: int(m.active.Load()),
		Processed:  m.processed.Load(),
		Failed:     m.failed.Load(),
	}
}

func (m *MemoryManager) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	m.logger.Debug().Int("worker_id", id).Msg("Worker started")
	for {
		select {
		case <-ctx.Done():
			m.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case job := <-m.queue:
			m.run(ctx, id, job)
		}
	}
}

func (m *MemoryManager) run(ctx context.Context, workerID int, job Job) {
	m.active.Add(1)
	defer m.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			m.failed.Add(1)
			m.processed.Add(1)
			m.logger.Error().Interface("panic", r).Str("job_id", job.ID).Msg("Job panicked")
		}
	}()

	m.logger.Trace().Int("worker_id", workerID).Str("job_id", job.ID).Str("job_type", job.Type).Msg("Processing job")
	if err := job.Run(ctx); err != nil {
		m.failed.Add(1)
		m.logger.Warn().Err(err).Str("job_id", job.ID).Str("job_type", job.Type).Msg("Job failed")
	}
	m.processed.Add(1)
}
