package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// StatementService is the hook hosts call for every executed statement. It
// wraps a StatementLogger with structured logs, spans and metrics.
type StatementService struct {
	logger port.StatementLogger
	log    *slog.Logger
	tracer trace.Tracer
	inst   port.Instrumentation
}

var _ port.StatementHook = (*StatementService)(nil)

func NewStatementService(logger port.StatementLogger, log *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *StatementService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &StatementService{
		logger: logger,
		log:    log,
		tracer: tracer,
		inst:   inst,
	}
}

// Handle records ev. Empty statements are skipped and return nil; write
// failures are returned unchanged so the host decides whether to surface them.
func (s *StatementService) Handle(ctx context.Context, ev port.StatementEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	ctx, span := s.tracer.Start(ctx, "StatementService.Handle",
		trace.WithAttributes(
			attribute.String("querylog.event.id", ev.ID.String()),
			attribute.String("querylog.target", ev.Target),
			attribute.String("querylog.status", ev.Outcome.String()),
			attribute.String("db.statement", ev.Statement),
		),
	)
	defer span.End()

	if ev.Duration > 0 {
		s.inst.RecordStatementDuration(ctx, float64(ev.Duration.Milliseconds()))
	}

	start := time.Now()
	err := s.logger.Record(ctx, ev)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, domain.ErrEmptyStatement):
		s.log.DebugContext(ctx, "empty statement skipped",
			slog.String("querylog.event.id", ev.ID.String()),
			slog.String("querylog.target", ev.Target),
		)
		span.SetAttributes(attribute.Bool("querylog.skipped", true))
		return nil
	case err != nil:
		s.log.WarnContext(ctx, "statement record failed",
			slog.String("querylog.event.id", ev.ID.String()),
			slog.String("querylog.target", ev.Target),
			slog.String("querylog.status", ev.Outcome.String()),
			slog.String("error.type", errorType(err)),
			slog.String("error.message", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementWriteErrors(ctx)
		return err
	}

	s.inst.RecordWriteDuration(ctx, float64(elapsed.Microseconds())/1000)
	s.inst.IncrementRecords(ctx, ev.Outcome)
	s.log.DebugContext(ctx, "statement recorded",
		slog.String("querylog.event.id", ev.ID.String()),
		slog.String("querylog.target", ev.Target),
		slog.String("querylog.status", ev.Outcome.String()),
	)
	return nil
}

func errorType(err error) string {
	if errors.Is(err, domain.ErrInvalidTarget) {
		return "invalid_target"
	}
	return "io_error"
}
