package postgres

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

// storeFramePrefix marks store-layer frames. The first one is reported as the
// query caller; the rest are passed over when looking for the handler.
const storeFramePrefix = "github.com/linnemanlabs/wardline/internal/triage/pgstore."

// Frames that never count as caller or handler.
var tracerFrameNoise = []string{
	"github.com/jackc/pgx/v5",
	"github.com/exaring/otelpgx",
	"github.com/linnemanlabs/wardline/internal/postgres.",
}

type queryStateKey struct{}

// queryState carries one statement from TraceQueryStart to TraceQueryEnd.
type queryState struct {
	sql     string
	args    []any
	start   time.Time
	caller  string
	handler string
}

func queryStateFromContext(ctx context.Context) *queryState {
	st, _ := ctx.Value(queryStateKey{}).(*queryState)
	return st
}

// loggingTracer wraps another pgx.QueryTracer (otelpgx in production). Every
// statement feeds the request stats and the query observer; failed statements
// and those slower than minDuration are also logged.
type loggingTracer struct {
	inner       pgx.QueryTracer
	minDuration time.Duration
	logArgs     bool
}

func wrapQueryTracer(inner pgx.QueryTracer, opts Options) pgx.QueryTracer {
	return loggingTracer{
		inner:       inner,
		minDuration: opts.MinLogDuration,
		logArgs:     opts.LogArgs,
	}
}

func (t loggingTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	st := &queryState{sql: data.SQL, start: time.Now()}
	if t.logArgs {
		st.args = data.Args
	}
	st.caller, st.handler = findDBCallerAndHandler()

	// inner first, so the DB span exists when we annotate it
	if t.inner != nil {
		ctx = t.inner.TraceQueryStart(ctx, conn, data)
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		if st.caller != "" {
			span.SetAttributes(attribute.String("db.caller", st.caller))
		}
		if st.handler != "" {
			span.SetAttributes(attribute.String("db.handler", st.handler))
		}
	}

	return context.WithValue(ctx, queryStateKey{}, st)
}

func (t loggingTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if t.inner != nil {
		t.inner.TraceQueryEnd(ctx, conn, data)
	}

	st := queryStateFromContext(ctx)
	if st == nil {
		st = &queryState{}
	}
	var dur time.Duration
	if !st.start.IsZero() {
		dur = time.Since(st.start)
	}

	if s, ok := ReqDBStatsFromContext(ctx); ok {
		s.AddQuery(dur, data.Err)
	}
	observeQuery(ctx, dur, data.Err)

	if data.Err == nil && dur < t.minDuration {
		return
	}

	fields := queryLogFields(st, dur, data)
	if data.Err != nil {
		log.FromContext(ctx).Error(ctx, data.Err, "db query failed", fields...)
		return
	}
	log.FromContext(ctx).Info(ctx, "db query", fields...)
}

func queryLogFields(st *queryState, dur time.Duration, data pgx.TraceQueryEndData) []any {
	fields := []any{
		"db.statement", st.sql,
		"db.duration", dur.Seconds(),
	}
	if st.args != nil {
		fields = append(fields, "db.args", st.args)
	}

	if tag := strings.TrimSpace(data.CommandTag.String()); tag != "" {
		if op, _, _ := strings.Cut(tag, " "); op != "" {
			fields = append(fields, "db.operation.name", strings.ToUpper(op))
		}
		fields = append(fields, "pg.command_tag", tag, "db.rows", data.CommandTag.RowsAffected())
	}

	if st.caller != "" {
		fields = append(fields, "db.caller", st.caller)
	}
	if st.handler != "" {
		fields = append(fields, "db.handler", st.handler)
	}

	var pgErr *pgconn.PgError
	if errors.As(data.Err, &pgErr) {
		fields = append(fields,
			"db.error_code", pgErr.Code,
			"db.error_constraint", pgErr.ConstraintName,
		)
	}
	return fields
}

// findDBCallerAndHandler walks the stack above the tracer. caller is the
// first application frame (normally a pgstore method); handler is the first
// frame above it outside the store package (normally a triage.Service method).
func findDBCallerAndHandler() (caller, handler string) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		fr, more := frames.Next()
		if fn := fr.Function; fn != "" && !isTracerNoise(fn) {
			switch {
			case caller == "":
				caller = shortenFuncName(fn)
			case !strings.HasPrefix(fn, storeFramePrefix):
				return caller, shortenFuncName(fn)
			}
		}
		if !more {
			return caller, ""
		}
	}
}

func isTracerNoise(fn string) bool {
	if strings.HasPrefix(fn, "runtime.") {
		return true
	}
	for _, p := range tracerFrameNoise {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	return false
}

// shortenFuncName keeps the receiver and method of a fully qualified name.
func shortenFuncName(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 && i+1 < len(fn) {
		fn = fn[i+1:]
	}
	if dot := strings.Index(fn, "."); dot >= 0 && dot+1 < len(fn) {
		fn = fn[dot+1:]
	}
	return fn
}
