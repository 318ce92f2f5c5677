package postgres

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RequestStats is HTTP middleware that stashes the request method for query
// metrics and collects per-request query statistics. When the request span is
// recording, the totals are added to it after the handler returns.
func RequestStats(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithHTTPMethod(r.Context(), r.Method)
		ctx = NewReqDBStatsContext(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))

		stats, _ := ReqDBStatsFromContext(ctx)
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		count, total, errs := stats.Snapshot()
		if count == 0 {
			return
		}
		span.SetAttributes(
			attribute.Int("db.query_count", count),
			attribute.Float64("db.total_duration_s", total.Seconds()),
			attribute.Int("db.error_count", errs),
		)
	})
}
