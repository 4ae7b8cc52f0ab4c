package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/guillermoBallester/querylog/internal/sqllog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mock StatementLogger ---

type mockLogger struct {
	mu     sync.Mutex
	events []port.StatementEvent
	err    error
}

func (m *mockLogger) Record(_ context.Context, ev port.StatementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

// --- recording Instrumentation ---

type recordingInst struct {
	port.NoopInstrumentation
	records     map[domain.Outcome]int
	writeErrors int
	writes      int
	stmtMS      []float64
}

func newRecordingInst() *recordingInst {
	return &recordingInst{records: map[domain.Outcome]int{}}
}

func (r *recordingInst) IncrementRecords(_ context.Context, o domain.Outcome) { r.records[o]++ }
func (r *recordingInst) IncrementWriteErrors(context.Context)                 { r.writeErrors++ }
func (r *recordingInst) RecordWriteDuration(context.Context, float64) { r.writes++ }
func (r *recordingInst) RecordStatementDuration(_ context.Context, ms float64) {
	r.stmtMS = append(r.stmtMS, ms)
}

// --- tests ---

func TestStatementService_Success(t *testing.T) {
	logger := &mockLogger{}
	inst := newRecordingInst()
	svc := NewStatementService(logger, testLogger(), nil, inst)

	err := svc.Handle(context.Background(), port.StatementEvent{
		Statement: "SELECT 1",
		Outcome:   domain.OutcomeFailed,
		Target:    "mydb",
		Duration:  250 * time.Millisecond,
	})
	require.NoError(t, err)

	require.Len(t, logger.events, 1)
	ev := logger.events[0]
	assert.NotEqual(t, uuid.Nil, ev.ID, "service assigns an event id")
	assert.Equal(t, "SELECT 1", ev.Statement)
	assert.Equal(t, domain.OutcomeFailed, ev.Outcome)
	assert.Equal(t, "mydb", ev.Target)

	assert.Equal(t, 1, inst.records[domain.OutcomeFailed])
	assert.Equal(t, 0, inst.writeErrors)
	assert.Equal(t, 1, inst.writes)
	assert.Equal(t, []float64{250}, inst.stmtMS)
}

func TestStatementService_KeepsEventID(t *testing.T) {
	logger := &mockLogger{}
	svc := NewStatementService(logger, testLogger(), nil, nil)
	id := uuid.New()

	require.NoError(t, svc.Handle(context.Background(), port.StatementEvent{ID: id, Statement: "SELECT 1", Target: "db"}))
	require.Len(t, logger.events, 1)
	assert.Equal(t, id, logger.events[0].ID)
}

func TestStatementService_EmptyStatementSkipped(t *testing.T) {
	logger := &mockLogger{err: domain.ErrEmptyStatement}
	inst := newRecordingInst()
	svc := NewStatementService(logger, testLogger(), nil, inst)

	err := svc.Handle(context.Background(), port.StatementEvent{Statement: "  ", Target: "mydb"})
	assert.NoError(t, err)
	assert.Empty(t, inst.records)
	assert.Equal(t, 0, inst.writeErrors)
	assert.Equal(t, 0, inst.writes, "skipped statements are not timed")
}

func TestStatementService_WriteErrorPropagates(t *testing.T) {
	writeErr := fmt.Errorf("%w: disk full", sqllog.ErrIO)
	logger := &mockLogger{err: writeErr}
	inst := newRecordingInst()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	svc := NewStatementService(logger, log, tp.Tracer("test"), inst)

	err := svc.Handle(context.Background(), port.StatementEvent{Statement: "SELECT 1", Target: "mydb"})
	require.ErrorIs(t, err, sqllog.ErrIO)
	assert.Equal(t, 1, inst.writeErrors)
	assert.Empty(t, inst.records)
	assert.Equal(t, 0, inst.writes, "failed writes are not timed")

	assert.Contains(t, buf.String(), `"msg":"statement record failed"`)
	assert.Contains(t, buf.String(), `"error.type":"io_error"`)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "StatementService.Handle", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestStatementService_InvalidTarget(t *testing.T) {
	logger := &mockLogger{err: fmt.Errorf("%w: %q", domain.ErrInvalidTarget, "../x")}

	var buf bytes.Buffer
	svc := NewStatementService(logger, slog.New(slog.NewJSONHandler(&buf, nil)), nil, nil)

	err := svc.Handle(context.Background(), port.StatementEvent{Statement: "SELECT 1", Target: "../x"})
	require.ErrorIs(t, err, domain.ErrInvalidTarget)
	assert.Contains(t, buf.String(), `"error.type":"invalid_target"`)
}

func TestStatementService_WithFileLogger(t *testing.T) {
	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	svc := NewStatementService(sqllog.New(dir, "", sqllog.WithClock(clock)), testLogger(), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, port.StatementEvent{Statement: "SELECT * FROM users", Target: "mydb"}))
	require.NoError(t, svc.Handle(ctx, port.StatementEvent{Statement: "", Target: "mydb"}))
	require.NoError(t, svc.Handle(ctx, port.StatementEvent{Statement: "DROP TABLE x;;;", Outcome: domain.OutcomeFailed, Target: "other"}))

	data, err := os.ReadFile(filepath.Join(dir, "mydb.sql"))
	require.NoError(t, err)
	assert.Equal(t,
		"-- 2024-01-01 12:00:00 | Status: SUCCESS\nSELECT * FROM users;\n\n"+
			"-- 2024-01-01 12:00:00 | Status: FAILED\nDROP TABLE x;\n\n",
		string(data))
}

func TestStatementService_EmptyStatementSameInEveryMode(t *testing.T) {
	sinks := map[string]port.StatementLogger{
		"first target wins": sqllog.New(t.TempDir(), ""),
		"per target":        sqllog.NewRegistry(t.TempDir()),
	}
	for name, sink := range sinks {
		t.Run(name, func(t *testing.T) {
			svc := NewStatementService(sink, testLogger(), nil, nil)
			assert.NoError(t, svc.Handle(context.Background(), port.StatementEvent{Statement: "  ;", Target: ""}))
		})
	}
}
