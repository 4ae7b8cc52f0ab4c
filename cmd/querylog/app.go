package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/guillermoBallester/querylog/internal/config"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/guillermoBallester/querylog/internal/core/service"
	"github.com/guillermoBallester/querylog/internal/sqllog"
	"github.com/guillermoBallester/querylog/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// app holds the wired components shared by subcommands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	sink    port.StatementLogger
	service *service.StatementService
	tracer  trace.Tracer
	inst    port.Instrumentation
	otel    *telemetry.Provider
}

func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, error) {
	// Logs go to stderr; stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	a := &app{
		cfg:    cfg,
		logger: logger,
		tracer: telemetry.NoopTracer(),
		inst:   telemetry.NoopInstruments(),
	}

	if cfg.OTelEnabled {
		p, err := telemetry.Init(ctx, version)
		if err != nil {
			return nil, fmt.Errorf("initializing telemetry: %w", err)
		}
		a.otel = p
		a.tracer = p.Tracer()
		a.inst = telemetry.NewInstruments()
		logger.Info("opentelemetry enabled")
	}

	a.sink = newSink(cfg)
	a.service = service.NewStatementService(a.sink, logger, a.tracer, a.inst)
	return a, nil
}

// newSink picks the StatementLogger implementation for cfg.
func newSink(cfg *config.Config) port.StatementLogger {
	if cfg.DryRun {
		return sqllog.NoopLogger{}
	}
	opts := []sqllog.Option{sqllog.WithSync(cfg.SyncWrites)}
	if cfg.Location != nil {
		opts = append(opts, sqllog.WithLocation(cfg.Location))
	}
	if cfg.PerTarget {
		return sqllog.NewRegistry(cfg.LogDir, opts...)
	}
	return sqllog.New(cfg.LogDir, cfg.LogFile, opts...)
}

// destinations lists the files the sink has resolved so far, sorted.
func (a *app) destinations() []string {
	var paths []string
	switch s := a.sink.(type) {
	case *sqllog.FileLogger:
		if d := s.Destination(); d != "" {
			paths = append(paths, d)
		}
	case *sqllog.Registry:
		for _, d := range s.Destinations() {
			paths = append(paths, d)
		}
		slices.Sort(paths)
	}
	return paths
}

func (a *app) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown", slog.String("error.message", err.Error()))
	}
}
