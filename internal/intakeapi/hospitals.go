package intakeapi

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/wardline/internal/geo"
	"github.com/linnemanlabs/wardline/internal/report"
)

func (a *API) handleListHospitals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"hospitals": a.svc.Hospitals()})
}

func (a *API) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	loc := geo.Point{Lat: lat, Lng: lng}
	if latErr != nil || lngErr != nil || !loc.Valid() {
		writeError(w, http.StatusBadRequest, "lat and lng must be valid coordinates")
		return
	}

	as, ok := a.svc.Nearest(loc)
	if !ok {
		writeError(w, http.StatusNotFound, "no hospital has available beds")
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("wardline.hospital", as.Hospital),
		attribute.Float64("wardline.distance_miles", as.DistanceMiles),
	)

	writeJSON(w, http.StatusOK, as)
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	data, err := report.BedAvailability(a.svc.Hospitals())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to build bed availability report")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bed-availability.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
