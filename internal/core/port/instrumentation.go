package port

import (
	"context"

	"github.com/guillermoBallester/querylog/internal/core/domain"
)

// Instrumentation records application-level metrics.
type Instrumentation interface {
	IncrementRecords(ctx context.Context, outcome domain.Outcome)
	IncrementWriteErrors(ctx context.Context)
	RecordWriteDuration(ctx context.Context, ms float64)
	RecordStatementDuration(ctx context.Context, ms float64)
	RecordToolDuration(ctx context.Context, ms float64)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) IncrementRecords(context.Context, domain.Outcome) {}
func (NoopInstrumentation) IncrementWriteErrors(context.Context)             {}
func (NoopInstrumentation) RecordWriteDuration(context.Context, float64)     {}
func (NoopInstrumentation) RecordStatementDuration(context.Context, float64) {}
func (NoopInstrumentation) RecordToolDuration(context.Context, float64)      {}
