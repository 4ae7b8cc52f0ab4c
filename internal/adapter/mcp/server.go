package mcp

import (
	"log/slog"

	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

const serverName = "querylog"

// NewServer creates an MCPServer exposing the statement hook as a tool.
func NewServer(version string, hook port.StatementHook, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, hook)

	return s
}
