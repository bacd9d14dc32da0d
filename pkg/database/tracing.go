package database

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/leogadddd/ordura-v2/pkg/database"

// slowQueryLog guards the process-wide slow query settings. A zero threshold
// means disabled.
type slowQueryLog struct {
	mu        sync.RWMutex
	threshold time.Duration
	logger    *slog.Logger
}

func (s *slowQueryLog) set(threshold time.Duration, logger *slog.Logger) {
	s.mu.Lock()
	s.threshold = threshold
	s.logger = logger
	s.mu.Unlock()
}

func (s *slowQueryLog) get() (time.Duration, *slog.Logger) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold, s.logger
}

var slowQueries slowQueryLog

// SetSlowQueryLogging enables warning logs for queries that run longer than
// threshold. A zero threshold turns the logging off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	slowQueries.set(threshold, logger)
}

// TraceQuery opens a client span for one database operation. Call the
// returned func with the operation's error once it finishes:
//
//	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
//	err := pool.QueryRow(ctx, query, id).Scan(&p.ID)
//	end(err)
func TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		logIfSlow(ctx, operation, statement, time.Since(start), err)
	}
}

func logIfSlow(ctx context.Context, operation, statement string, elapsed time.Duration, err error) {
	threshold, logger := slowQueries.get()
	if threshold <= 0 || logger == nil || elapsed < threshold {
		return
	}
	attrs := []any{
		slog.String("operation", operation),
		slog.String("statement", statement),
		slog.Duration("duration", elapsed),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.WarnContext(ctx, "slow query detected", attrs...)
}
