package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/guillermoBallester/querylog/internal/adapter/postgres"
	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolLogStatement = "log_statement"

const (
	resultLogged  = "logged"
	resultSkipped = "skipped"
)

// Tool descriptions
const (
	descLogStatement = "Append an executed SQL statement to the audit log with its outcome. " +
		"Call this once after every statement you run, whether it succeeded or failed. " +
		"The statement is stored verbatim with a single trailing semicolon; it is never parsed or executed. " +
		"A statement that is empty or only whitespace and semicolons is skipped and reported as \"skipped\". " +
		"Identify the database with exactly one of: target, database (+ namespace), or dsn (+ namespace)."

	descStatementParam = "The SQL statement text that was executed"
	descFailedParam    = "True if the statement failed. Defaults to false."
	descTargetParam    = "Log target, e.g. \"shop\" or \"shop.public\". Selects the log file <target>.sql."
	descDatabaseParam  = "Database name; combined with namespace to form the target"
	descNamespaceParam = "Optional schema/namespace appended to the database name as \".<namespace>\""
	descDSNParam       = "PostgreSQL connection string; only the database name is used, no connection is made"
	descDurationParam  = "Optional execution time of the statement in milliseconds"
)

func RegisterTools(s *server.MCPServer, hook port.StatementHook) {
	s.AddTool(
		mcp.NewTool(toolLogStatement,
			mcp.WithDescription(descLogStatement),
			mcp.WithString("statement",
				mcp.Required(),
				mcp.Description(descStatementParam),
			),
			mcp.WithBoolean("failed", mcp.Description(descFailedParam)),
			mcp.WithString("target", mcp.Description(descTargetParam)),
			mcp.WithString("database", mcp.Description(descDatabaseParam)),
			mcp.WithString("namespace", mcp.Description(descNamespaceParam)),
			mcp.WithString("dsn", mcp.Description(descDSNParam)),
			mcp.WithNumber("duration_ms", mcp.Description(descDurationParam)),
		),
		logStatementHandler(hook),
	)
}

func logStatementHandler(hook port.StatementHook) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		statement, ok := args["statement"].(string)
		if !ok {
			return mcp.NewToolResultError("statement is required"), nil
		}
		if _, err := domain.Normalize(statement); err != nil {
			return mcp.NewToolResultText(resultSkipped), nil
		}

		target, err := resolveTarget(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		failed, _ := args["failed"].(bool)
		ev := port.StatementEvent{
			Statement: statement,
			Outcome:   domain.OutcomeFromFailed(failed),
			Target:    target,
		}
		if ms, ok := args["duration_ms"].(float64); ok && ms > 0 {
			ev.Duration = time.Duration(ms * float64(time.Millisecond))
		}

		if err := hook.Handle(ctx, ev); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to log statement: %v", err)), nil
		}

		return mcp.NewToolResultText(resultLogged), nil
	}
}

// resolveTarget picks the target from the tool arguments. An empty result is
// allowed: a logger with an explicit file path ignores targets.
func resolveTarget(args map[string]any) (string, error) {
	target, _ := args["target"].(string)
	database, _ := args["database"].(string)
	namespace, _ := args["namespace"].(string)
	dsn, _ := args["dsn"].(string)

	given := 0
	for _, v := range []string{target, database, dsn} {
		if v != "" {
			given++
		}
	}
	if given > 1 {
		return "", fmt.Errorf("target, database and dsn are mutually exclusive")
	}

	switch {
	case dsn != "":
		return postgres.TargetFromDSN(dsn, namespace)
	case database != "":
		return domain.Target(database, namespace), nil
	default:
		return target, nil
	}
}
