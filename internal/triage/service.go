package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/wardline/internal/geo"
	"github.com/linnemanlabs/wardline/internal/hospital"
)

// DefaultListLimit caps Recent when the caller passes no limit.
const DefaultListLimit = 50

// Hospitals is the capacity source the service assigns against.
type Hospitals interface {
	Assign(loc geo.Point) (hospital.Assignment, bool)
	Nearest(loc geo.Point) (hospital.Assignment, bool)
	Snapshot() []hospital.Hospital
}

// Notifier delivers high-priority intake records to on-call staff.
type Notifier interface {
	Send(ctx context.Context, rec *Record) error
}

// Summarizer writes a short handoff note for the receiving hospital.
type Summarizer interface {
	Handoff(ctx context.Context, rec *Record) (string, error)
}

// ServiceHooks are optional callbacks for instrumentation.
type ServiceHooks struct {
	OnAssess func(a Assessment)
	OnAssign func(outcome Status, distanceMiles float64)
	OnNotify func(status string, duration float64)
}

// Service is the business boundary for intake operations.
type Service struct {
	store      Store
	hospitals  Hospitals
	logger     log.Logger
	hooks      ServiceHooks
	notifier   Notifier
	summarizer Summarizer
}

// NewService creates a new intake service. notifier and summarizer may be nil.
func NewService(store Store, hospitals Hospitals, logger log.Logger, hooks ServiceHooks, notifier Notifier, summarizer Summarizer) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:      store,
		hospitals:  hospitals,
		logger:     logger,
		hooks:      hooks,
		notifier:   notifier,
		summarizer: summarizer,
	}
}

// Assess scores a patient without recording anything.
func (s *Service) Assess(_ context.Context, p Patient) Assessment {
	a := Assess(p)
	if s.hooks.OnAssess != nil {
		s.hooks.OnAssess(a)
	}
	return a
}

// Intake scores a patient and, when assign is set, takes a bed at the
// nearest hospital with capacity. Running out of beds is recorded as
// StatusNoCapacity rather than returned as an error.
func (s *Service) Intake(ctx context.Context, p Patient, assign bool) (*Record, error) {
	a := s.Assess(ctx, p)

	rec := &Record{
		ID:        ulid.Make().String(),
		Status:    StatusScored,
		Score:     a.Score,
		Level:     a.Level,
		Factors:   a.Factors,
		CreatedAt: time.Now().UTC(),
	}

	if assign {
		if as, ok := s.hospitals.Assign(p.Location); ok {
			rec.Status = StatusAssigned
			rec.Hospital = as.Hospital
			rec.DistanceMiles = as.DistanceMiles
			rec.BedsRemaining = as.BedsRemaining
		} else {
			rec.Status = StatusNoCapacity
		}
		if s.hooks.OnAssign != nil {
			s.hooks.OnAssign(rec.Status, rec.DistanceMiles)
		}
	}

	L := s.logger.With("intake_id", rec.ID)

	if err := s.store.Put(ctx, rec); err != nil {
		// the bed is already taken; log enough to reconcile by hand
		L.Error(ctx, err, "failed to persist intake record",
			"status", rec.Status,
			"hospital", rec.Hospital,
		)
		return nil, fmt.Errorf("store intake record: %w", err)
	}

	L.Info(ctx, "intake recorded",
		"status", rec.Status,
		"score", rec.Score,
		"level", rec.Level,
		"hospital", rec.Hospital,
		"distance_miles", rec.DistanceMiles,
	)

	if rec.Level == LevelHigh && s.notifier != nil {
		// pass only the ID so the goroutine never shares rec with the caller
		go s.dispatch(context.WithoutCancel(ctx), rec.ID)
	}

	return rec, nil
}

// Get retrieves an intake record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, bool, error) {
	return s.store.Get(ctx, id)
}

// Recent lists the newest intake records.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.List(ctx, limit)
}

// Hospitals returns the current hospital table.
func (s *Service) Hospitals() []hospital.Hospital {
	return s.hospitals.Snapshot()
}

// Nearest previews the hospital an intake at loc would be assigned to.
func (s *Service) Nearest(loc geo.Point) (hospital.Assignment, bool) {
	return s.hospitals.Nearest(loc)
}

func (s *Service) dispatch(ctx context.Context, id string) {
	start := time.Now()
	L := s.logger.With("intake_id", id)

	rec, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		L.Error(ctx, err, "failed to fetch record for notification")
		s.observeNotify("error", start)
		return
	}

	if s.summarizer != nil && rec.Assigned() {
		note, err := s.summarizer.Handoff(ctx, rec)
		if err != nil {
			// notify without the note rather than not at all
			L.Warn(ctx, "handoff note generation failed", "error", err)
		} else {
			rec.Handoff = note
		}
	}

	if err := s.notifier.Send(ctx, rec); err != nil {
		L.Error(ctx, err, "failed to send intake notification")
		s.observeNotify("error", start)
		return
	}

	rec.NotifiedAt = time.Now().UTC()
	if err := s.store.Put(ctx, rec); err != nil {
		L.Error(ctx, err, "failed to persist notification state")
	}
	s.observeNotify("sent", start)

	L.Info(ctx, "intake notification sent",
		"level", rec.Level,
		"hospital", rec.Hospital,
		"handoff", rec.Handoff != "",
	)
}

func (s *Service) observeNotify(status string, start time.Time) {
	if s.hooks.OnNotify != nil {
		s.hooks.OnNotify(status, time.Since(start).Seconds())
	}
}
