// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/wardline/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/wardline/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists intake records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
// The caller owns the pool and closes it.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const recordColumns = `id, status, score, level, factors, hospital, distance_miles,
	beds_remaining, handoff, created_at, notified_at`

// Get retrieves an intake record by ID.
func (s *Store) Get(ctx context.Context, id string) (*triage.Record, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.Get", "SELECT")
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM intake_records WHERE id = $1`
	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		fail(span, err)
		return nil, false, err
	}
	return r, true, nil
}

// Put inserts or updates an intake record (upsert on id).
func (s *Store) Put(ctx context.Context, r *triage.Record) error {
	ctx, span := startSpan(ctx, "pgstore.Put", "UPSERT")
	defer span.End()

	factors := r.Factors
	if factors == nil {
		factors = []string{}
	}
	factorsJSON, err := json.Marshal(factors)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("marshal factors: %w", err)
	}

	var notifiedAt *time.Time
	if !r.NotifiedAt.IsZero() {
		notifiedAt = &r.NotifiedAt
	}

	query := `INSERT INTO intake_records (` + recordColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	ON CONFLICT (id) DO UPDATE SET
		status         = EXCLUDED.status,
		score          = EXCLUDED.score,
		level          = EXCLUDED.level,
		factors        = EXCLUDED.factors,
		hospital       = EXCLUDED.hospital,
		distance_miles = EXCLUDED.distance_miles,
		beds_remaining = EXCLUDED.beds_remaining,
		handoff        = EXCLUDED.handoff,
		notified_at    = EXCLUDED.notified_at`

	_, err = s.pool.Exec(ctx, query,
		r.ID, string(r.Status), r.Score, string(r.Level), factorsJSON, r.Hospital,
		r.DistanceMiles, r.BedsRemaining, r.Handoff, r.CreatedAt, notifiedAt,
	)
	if err != nil {
		fail(span, err)
		return fmt.Errorf("upsert intake record: %w", err)
	}
	return nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*triage.Record, error) {
	ctx, span := startSpan(ctx, "pgstore.List", "SELECT")
	defer span.End()
	span.SetAttributes(attribute.Int("db.query.limit", limit))

	if limit <= 0 {
		return []*triage.Record{}, nil
	}

	query := `SELECT ` + recordColumns + ` FROM intake_records ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("query intake records: %w", err)
	}
	defer rows.Close()

	out := make([]*triage.Record, 0, limit)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			fail(span, err)
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		fail(span, err)
		return nil, fmt.Errorf("iterate intake records: %w", err)
	}
	return out, nil
}

// scanRecord scans a single row into a triage.Record. pgx.ErrNoRows is
// returned unwrapped so Get can tell "missing" from a failure.
func scanRecord(row pgx.Row) (*triage.Record, error) {
	var (
		r           triage.Record
		status      string
		level       string
		factorsJSON []byte
		notifiedAt  *time.Time
	)

	err := row.Scan(
		&r.ID, &status, &r.Score, &level, &factorsJSON, &r.Hospital, &r.DistanceMiles,
		&r.BedsRemaining, &r.Handoff, &r.CreatedAt, &notifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	r.Status = triage.Status(status)
	r.Level = triage.Level(level)
	r.CreatedAt = r.CreatedAt.UTC()
	if notifiedAt != nil {
		r.NotifiedAt = notifiedAt.UTC()
	}

	if err := json.Unmarshal(factorsJSON, &r.Factors); err != nil {
		return nil, fmt.Errorf("unmarshal factors: %w", err)
	}
	if r.Factors == nil {
		r.Factors = []string{}
	}

	return &r, nil
}

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
		attribute.String("db.collection.name", "intake_records"),
	))
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
