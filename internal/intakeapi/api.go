// Package intakeapi exposes patient intake, triage scoring and hospital
// capacity over HTTP.
package intakeapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/wardline/internal/geo"
	"github.com/linnemanlabs/wardline/internal/hospital"
	"github.com/linnemanlabs/wardline/internal/triage"
)

// IntakeService defines the business operations intakeapi needs.
type IntakeService interface {
	Assess(ctx context.Context, p triage.Patient) triage.Assessment
	Intake(ctx context.Context, p triage.Patient, assign bool) (*triage.Record, error)
	Get(ctx context.Context, id string) (*triage.Record, bool, error)
	Recent(ctx context.Context, limit int) ([]*triage.Record, error)
	Hospitals() []hospital.Hospital
	Nearest(loc geo.Point) (hospital.Assignment, bool)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    IntakeService
}

// New creates a new API handler.
func New(logger log.Logger, svc IntakeService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("intake service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router. mw wraps every
// /api/v1 route, e.g. authentication.
func (a *API) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw...)

		r.Post("/triage", a.handleAssess)

		r.Post("/intake", a.handleIntake)
		r.Get("/intake", a.handleListIntakes)
		r.Get("/intake/{id}", a.handleGetIntake)

		r.Get("/hospitals", a.handleListHospitals)
		r.Get("/hospitals/nearest", a.handleNearest)
		r.Get("/hospitals/report.xlsx", a.handleReport)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing useful to do with a write error once the header is out
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
