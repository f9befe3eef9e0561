// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package jobs runs background work for the server, such as periodic
// snapshot collection.
package jobs

import (
	"context"
	"errors"
)

var (
	// ErrNotStarted is returned by Submit before Start or after Stop.
	ErrNotStarted = errors.New("job manager not started")
	// ErrQueueFull is returned when the queue cannot take another job.
	ErrQueueFull = errors.New("job queue full")
)

// Manager runs submitted jobs in the background.
type Manager interface {
	// Start launches the workers. It does not block.
	Start(ctx context.Context) error

	// Stop cancels the workers and waits for in-flight jobs or ctx.
	Stop(ctx context.Context) error

	// Submit queues a job without blocking.
	Submit(job Job) error

	// Status returns queue statistics.
	Status() Status
}

// Job is a unit of work.
type Job struct {
	ID   string
	Type string
	Run  func(ctx context.Context) error
}

// Status holds job manager statistics.
type Status struct {
	QueueDepth int   `json:"queue_depth"`
	ActiveJobs int   `json:"active_jobs"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
}
