// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/linnemanlabs/wardline/internal/triage"
)

// Store holds intake records in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	records map[string]*triage.Record // intake ID -> record
	order   []string                  // intake IDs in first-put order
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*triage.Record),
	}
}

// Get retrieves an intake record by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	return clone(r), true, nil
}

// Put stores a copy of the record. Updating an existing ID keeps its position.
func (s *Store) Put(_ context.Context, r *triage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.records[r.ID] = clone(r)
	return nil
}

// List returns up to limit records, newest first. Returns copies.
func (s *Store) List(_ context.Context, limit int) ([]*triage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := min(limit, len(s.order))
	if n < 0 {
		n = 0
	}
	out := make([]*triage.Record, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, clone(s.records[s.order[i]]))
	}
	return out, nil
}

func clone(r *triage.Record) *triage.Record {
	cp := *r
	cp.Factors = slices.Clone(r.Factors)
	return &cp
}
