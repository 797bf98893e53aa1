package kv

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Store is the live key-value state machine. It is read by the serving path
// while the apply path mutates it, so unlike the storage facade it carries
// its own lock.
type Store struct {
	mu     sync.RWMutex
	data   map[string]string
	tracer oteltrace.Tracer
}

// NewStore creates an empty KV store.
func NewStore(tracer oteltrace.Tracer) *Store {
	return &Store{
		data:   make(map[string]string),
		tracer: tracer,
	}
}

// Get returns the current value for key, if present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// Len reports the number of stored pairs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Apply executes a committed set-value command against the state machine.
// Idempotent-apply bookkeeping by message id is the caller's concern.
func (s *Store) Apply(ctx context.Context, cmd SetCommand) {
	_, span := s.tracer.Start(ctx, "kv.store.Apply", oteltrace.WithAttributes(
		attribute.String("kv.key", cmd.Key),
		attribute.Int("kv.value.bytes", len(cmd.Value)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cmd.Key] = cmd.Value
}

// SnapshotState returns a copy of the current mapping for encoding into a
// snapshot payload.
func (s *Store) SnapshotState(ctx context.Context) State {
	_, span := s.tracer.Start(ctx, "kv.store.SnapshotState")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	span.SetAttributes(attribute.Int("kv.store.items", len(s.data)))

	cp := make(State, len(s.data))
	for k, v := range s.data {
		cp[k] = v
	}
	return cp
}

// Restore replaces the current state with a decoded snapshot state.
// A nil state resets the store to empty.
func (s *Store) Restore(ctx context.Context, state State) {
	_, span := s.tracer.Start(ctx, "kv.store.Restore", oteltrace.WithAttributes(
		attribute.Int("kv.store.items", len(state)),
	))
	defer span.End()

	restored := make(map[string]string, len(state))
	for k, v := range state {
		restored[k] = v
	}

	s.mu.Lock()
	s.data = restored
	s.mu.Unlock()
}
