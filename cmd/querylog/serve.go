package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/guillermoBallester/querylog/internal/adapter/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the log_statement tool over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(ctx)

			a.logger.Info("starting querylog",
				slog.String("version", version),
				slog.String("log_level", cfg.LogLevel.String()),
				slog.String("log_dir", cfg.LogDir),
				slog.String("log_file", cfg.LogFile),
				slog.Bool("per_target", cfg.PerTarget),
				slog.Bool("sync_writes", cfg.SyncWrites),
				slog.Bool("dry_run", cfg.DryRun),
			)
			warnMissingDir(a.logger, cfg.LogDir, cfg.LogFile)

			s := mcp.NewServer(version, a.service, a.logger, a.tracer, a.inst)
			stdio := mcpserver.NewStdioServer(s)

			a.logger.Info("serving MCP over stdio")
			if err := stdio.Listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, ctx.Err()) {
				return fmt.Errorf("stdio server: %w", err)
			}

			a.logger.Info("shutdown complete", slog.Any("destinations", a.destinations()))
			return nil
		},
	}
}

// warnMissingDir flags a log directory that does not exist yet. The logger
// never creates it, so every record would fail until it does.
func warnMissingDir(logger *slog.Logger, dir, file string) {
	if file != "" {
		return
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("log directory does not exist; records will fail until it is created",
			slog.String("log_dir", dir),
		)
	}
}
