package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// inflight tracks one tool call between its before and after hooks.
type inflight struct {
	start  time.Time
	span   trace.Span
	target string
	status string
}

// describeCall extracts the log target and status a log_statement call reports.
// Other tools, and arguments that do not resolve to a target, yield "".
func describeCall(req *mcp.CallToolRequest) (target, status string) {
	if req.Params.Name != toolLogStatement {
		return "", ""
	}
	args := req.GetArguments()
	target, _ = resolveTarget(args)
	failed, _ := args["failed"].(bool)
	return target, domain.OutcomeFromFailed(failed).String()
}

// ToolCallHooks logs every tool call and, when tracer/inst are non-nil, records spans and durations.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	hooks := &server.Hooks{}
	var calls sync.Map // request id -> *inflight

	finish := func(id any) *inflight {
		v, ok := calls.LoadAndDelete(id)
		if !ok {
			return &inflight{start: time.Now()}
		}
		return v.(*inflight)
	}

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		call := &inflight{start: time.Now()}
		call.target, call.status = describeCall(req)
		if tracer != nil {
			_, call.span = tracer.Start(ctx, "mcp.tool.call",
				trace.WithAttributes(
					attribute.String("mcp.tool", req.Params.Name),
					attribute.String("querylog.target", call.target),
					attribute.String("querylog.status", call.status),
				),
			)
		}
		calls.Store(id, call)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
		call := finish(id)
		duration, span := time.Since(call.start), call.span

		isErr := false
		if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
			isErr = true
		}
		level := slog.LevelInfo
		if isErr {
			level = slog.LevelWarn
		}

		logger.LogAttrs(ctx, level, "tool call",
			slog.String("rpc.method", "tools/call"),
			slog.String("mcp.tool", req.Params.Name),
			slog.String("querylog.target", call.target),
			slog.String("querylog.status", call.status),
			slog.Duration("duration", duration),
			slog.Bool("error", isErr),
		)

		if inst != nil {
			inst.RecordToolDuration(ctx, float64(duration.Milliseconds()))
		}
		if span != nil {
			if isErr {
				span.SetStatus(codes.Error, "tool returned error")
				span.RecordError(fmt.Errorf("tool %s returned error", req.Params.Name))
			}
			span.End()
		}
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		call := finish(id)
		duration, span := time.Since(call.start), call.span

		if req, ok := message.(*mcp.CallToolRequest); ok {
			logger.LogAttrs(ctx, slog.LevelError, "tool call",
				slog.String("rpc.method", string(method)),
				slog.String("mcp.tool", req.Params.Name),
				slog.String("querylog.target", call.target),
				slog.String("querylog.status", call.status),
				slog.Duration("duration", duration),
				slog.Bool("error", true),
				slog.String("error.message", err.Error()),
			)
		}

		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
		}
	})

	return hooks
}
