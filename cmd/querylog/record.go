package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guillermoBallester/querylog/internal/adapter/postgres"
	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/spf13/cobra"
)

type recordOptions struct {
	target    string
	database  string
	namespace string
	dsn       string
	failed    bool
	duration  time.Duration
}

func newRecordCmd() *cobra.Command {
	var opts recordOptions

	cmd := &cobra.Command{
		Use:   "record [statement]",
		Short: "Append one statement to the log",
		Long: `Append one statement to the log. The statement is taken from the
arguments (joined with spaces) or, when none are given, from stdin.`,
		Example: `  querylog record --target shop "SELECT * FROM users"
  querylog record --dsn "$DATABASE_URL" --failed < failed.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			statement, err := readStatement(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			target, err := opts.resolveTarget()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close(ctx)

			return a.service.Handle(ctx, port.StatementEvent{
				Statement: statement,
				Outcome:   domain.OutcomeFromFailed(opts.failed),
				Target:    target,
				Duration:  opts.duration,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.target, "target", "", "log target, e.g. shop or shop.public")
	f.StringVar(&opts.database, "database", "", "database name (combined with --namespace)")
	f.StringVar(&opts.namespace, "namespace", "", "optional schema appended as .<namespace>")
	f.StringVar(&opts.dsn, "dsn", "", "PostgreSQL connection string to take the database name from")
	f.BoolVar(&opts.failed, "failed", false, "mark the statement as FAILED")
	f.DurationVar(&opts.duration, "duration", 0, "execution time reported by the caller")
	cmd.MarkFlagsMutuallyExclusive("target", "database", "dsn")

	return cmd
}

func (o recordOptions) resolveTarget() (string, error) {
	switch {
	case o.dsn != "":
		return postgres.TargetFromDSN(o.dsn, o.namespace)
	case o.database != "":
		return domain.Target(o.database, o.namespace), nil
	default:
		return o.target, nil
	}
}

func readStatement(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading statement from stdin: %w", err)
	}
	return string(data), nil
}
