package telemetry

import (
	"context"

	"github.com/guillermoBallester/querylog/internal/core/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/guillermoBallester/querylog"

// Instruments holds pre-created OTel metric instruments.
type Instruments struct {
	RecordCount       metric.Int64Counter
	RecordErrors      metric.Int64Counter
	WriteDuration     metric.Float64Histogram
	StatementDuration metric.Float64Histogram
	ToolDuration      metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return NewInstrumentsFromMeter(otel.Meter(meterName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return NewInstrumentsFromMeter(noop.NewMeterProvider().Meter(meterName))
}

func NewInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	recordCount, _ := meter.Int64Counter("querylog.record.count",
		metric.WithDescription("Total number of statement records appended"),
	)
	recordErrors, _ := meter.Int64Counter("querylog.record.errors",
		metric.WithDescription("Total number of statement records that could not be written"),
	)
	writeDuration, _ := meter.Float64Histogram("querylog.record.duration",
		metric.WithDescription("Time to lock, append and unlock one record, in milliseconds"),
		metric.WithUnit("ms"),
	)
	statementDuration, _ := meter.Float64Histogram("querylog.statement.duration",
		metric.WithDescription("Host-reported statement execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	toolDuration, _ := meter.Float64Histogram("querylog.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		RecordCount:       recordCount,
		RecordErrors:      recordErrors,
		WriteDuration:     writeDuration,
		StatementDuration: statementDuration,
		ToolDuration:      toolDuration,
	}
}

func (i *Instruments) IncrementRecords(ctx context.Context, outcome domain.Outcome) {
	i.RecordCount.Add(ctx, 1, metric.WithAttributes(attribute.String("querylog.status", outcome.String())))
}

func (i *Instruments) IncrementWriteErrors(ctx context.Context) {
	i.RecordErrors.Add(ctx, 1)
}

func (i *Instruments) RecordWriteDuration(ctx context.Context, ms float64) {
	i.WriteDuration.Record(ctx, ms)
}

func (i *Instruments) RecordStatementDuration(ctx context.Context, ms float64) {
	i.StatementDuration.Record(ctx, ms)
}

func (i *Instruments) RecordToolDuration(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}
