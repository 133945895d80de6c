// Package audit records structured events describing what reconciliation
// changed. Events are append-only; the file sink writes one JSON object per
// line so the log can be tailed and grepped.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Kind classifies an audit event.
type Kind string

// Event kinds
const (
	KindReconcile Kind = "reconcile"
)

// Counts summarizes one reconciliation pass.
type Counts struct {
	Created   int `json:"created"`
	Completed int `json:"completed"`
	Reopened  int `json:"reopened"`
	Missing   int `json:"missing"`
}

// Event is one audit record.
type Event struct {
	Time     time.Time `json:"time"`
	Actor    string    `json:"actor,omitempty"`
	Tenant   string    `json:"tenant"`
	Template string    `json:"template"`
	Kind     Kind      `json:"kind"`
	Counts   Counts    `json:"counts"`
}

// Sink receives audit events.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Nop discards all events.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(context.Context, Event) error { return nil }

// FileSink appends events as JSON lines to a single file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a sink writing to the given path, creating parent
// directories as needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Record appends one event. The file is opened per write so the sink holds
// no descriptors between reconciliation runs.
func (s *FileSink) Record(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// MemorySink collects events in memory for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Record implements Sink.
func (s *MemorySink) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
