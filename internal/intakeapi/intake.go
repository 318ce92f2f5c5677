package intakeapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/wardline/internal/triage"
)

// maxListLimit bounds ?limit= on GET /intake.
const maxListLimit = 500

func (a *API) handleAssess(w http.ResponseWriter, r *http.Request) {
	var f patientForm
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p, err := f.patient(false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	as := a.svc.Assess(r.Context(), p)

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.Int("wardline.triage.score", as.Score),
		attribute.String("wardline.triage.level", string(as.Level)),
	)

	writeJSON(w, http.StatusOK, as)
}

func (a *API) handleIntake(w http.ResponseWriter, r *http.Request) {
	var f intakeForm
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p, err := f.patient(true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := a.svc.Intake(r.Context(), p, f.Assign)
	if err != nil {
		a.logger.Error(r.Context(), err, "intake failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("wardline.intake.id", rec.ID),
		attribute.String("wardline.intake.status", string(rec.Status)),
		attribute.String("wardline.triage.level", string(rec.Level)),
	)
	if rec.Assigned() {
		span.SetAttributes(attribute.String("wardline.hospital", rec.Hospital))
	}

	// no_capacity is still a created record; the outcome is in the body
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleGetIntake(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("wardline.intake.id", id))

	rec, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get intake record", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	span.SetAttributes(attribute.String("wardline.intake.status", string(rec.Status)))

	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleListIntakes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, "limit must be an integer in 1..500")
			return
		}
		limit = n
	}

	recs, err := a.svc.Recent(r.Context(), limit)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list intake records")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if recs == nil {
		recs = []*triage.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"intakes": recs})
}
