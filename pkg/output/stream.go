// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "sync"

// OutputSubscriber handles output events.
type OutputSubscriber interface {
	// Handle processes an output event. Called synchronously by Emit.
	Handle(event OutputEvent)

	// Name returns a unique identifier for this subscriber.
	Name() string

	// ShouldHandle reports whether the subscriber wants this event.
	ShouldHandle(event OutputEvent) bool
}

// OutputEventStream is a synchronous event dispatcher. Subscribers are
// called in registration order so terminal output keeps its ordering.
type OutputEventStream struct {
	subscribers []OutputSubscriber
	mu          sync.RWMutex
}

// NewOutputEventStream creates a new event stream with no subscribers.
func NewOutputEventStream() *OutputEventStream {
	return &OutputEventStream{
		subscribers: make([]OutputSubscriber, 0, 4),
	}
}

// Subscribe registers a new subscriber to receive events.
func (s *OutputEventStream) Subscribe(sub OutputSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// Emit dispatches an event to every subscriber whose ShouldHandle accepts it.
func (s *OutputEventStream) Emit(event OutputEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		if sub.ShouldHandle(event) {
			sub.Handle(event)
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (s *OutputEventStream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
