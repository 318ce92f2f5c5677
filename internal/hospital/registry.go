package hospital

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/linnemanlabs/wardline/internal/geo"
)

// Registry is the process-wide hospital table. Bed counts only change
// through Assign, which selects and decrements under a single lock.
type Registry struct {
	mu        sync.Mutex
	hospitals []Hospital     // insertion order, used for tie-breaks
	index     map[string]int // name -> position in hospitals
}

// NewRegistry builds a registry from hospitals, keeping their order.
func NewRegistry(hospitals []Hospital) (*Registry, error) {
	r := &Registry{
		hospitals: make([]Hospital, 0, len(hospitals)),
		index:     make(map[string]int, len(hospitals)),
	}

	var errs []error
	for i, h := range hospitals {
		if err := h.validate(); err != nil {
			errs = append(errs, fmt.Errorf("hospital %d (%q): %w", i, h.Name, err))
			continue
		}
		if _, dup := r.index[h.Name]; dup {
			errs = append(errs, fmt.Errorf("hospital %d: duplicate name %q", i, h.Name))
			continue
		}
		r.index[h.Name] = len(r.hospitals)
		r.hospitals = append(r.hospitals, h)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Assign picks the nearest hospital with at least one free bed, takes one
// bed from it and returns it. ok is false when no hospital has capacity, in
// which case nothing is modified.
func (r *Registry) Assign(loc geo.Point) (Assignment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, dist := r.nearestLocked(loc)
	if i < 0 {
		return Assignment{}, false
	}

	r.hospitals[i].BedsAvailable--
	return Assignment{
		Hospital:      r.hospitals[i].Name,
		DistanceMiles: dist,
		BedsRemaining: r.hospitals[i].BedsAvailable,
	}, true
}

// Nearest runs the same selection as Assign without taking a bed.
func (r *Registry) Nearest(loc geo.Point) (Assignment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, dist := r.nearestLocked(loc)
	if i < 0 {
		return Assignment{}, false
	}
	return Assignment{
		Hospital:      r.hospitals[i].Name,
		DistanceMiles: dist,
		BedsRemaining: r.hospitals[i].BedsAvailable,
	}, true
}

// nearestLocked returns the index of the closest hospital with capacity, or
// -1. Strict < keeps the first hospital on equal distances.
func (r *Registry) nearestLocked(loc geo.Point) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i := range r.hospitals {
		h := &r.hospitals[i]
		if h.BedsAvailable <= 0 {
			continue
		}
		d := geo.Distance(loc, h.Location)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// Snapshot returns a copy of the table in insertion order.
func (r *Registry) Snapshot() []Hospital {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Hospital, len(r.hospitals))
	copy(out, r.hospitals)
	return out
}

// Get returns a copy of the named hospital.
func (r *Registry) Get(name string) (Hospital, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[name]
	if !ok {
		return Hospital{}, false
	}
	return r.hospitals[i], true
}

// Len returns the number of hospitals.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hospitals)
}

// TotalBeds returns the sum of free beds across all hospitals.
func (r *Registry) TotalBeds() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for i := range r.hospitals {
		total += r.hospitals[i].BedsAvailable
	}
	return total
}
