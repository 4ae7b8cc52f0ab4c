package main

import (
	"github.com/guillermoBallester/querylog/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "querylog",
		Short: "Append executed SQL statements to per-database audit files",
		Long: `querylog records every statement a database tool executes, with a
timestamp and SUCCESS/FAILED status, into <log-dir>/<target>.sql.
Writes are serialized with an exclusive file lock, so any number of
processes can share one log file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to YAML config file (env: CONFIG_FILE)")
	flags.String("log-dir", "", "directory for <target>.sql files (env: QUERYLOG_DIR, default \"logs\")")
	flags.String("log-file", "", "explicit log file; targets are ignored (env: QUERYLOG_FILE)")
	flags.Bool("per-target", false, "keep one destination per target instead of pinning the first (env: QUERYLOG_PER_TARGET)")
	flags.Bool("sync", false, "fsync every record before releasing the lock (env: SYNC_WRITES)")
	flags.String("timezone", "", "IANA zone for record timestamps (env: LOG_TIMEZONE, default local)")
	flags.String("log-level", "", "debug, info, warn or error (env: LOG_LEVEL)")
	flags.Bool("dry-run", false, "accept statements but write nothing")
	flags.Bool("otel", false, "enable OpenTelemetry tracing and metrics (env: OTEL_ENABLED)")

	root.AddCommand(newServeCmd(), newRecordCmd())
	return root
}

// overridesFromFlags collects the persistent flags the user actually set.
func overridesFromFlags(cmd *cobra.Command) (config.Overrides, error) {
	var o config.Overrides
	flags := cmd.Flags()

	for name, dst := range map[string]**string{
		"config":    &o.ConfigFile,
		"log-dir":   &o.LogDir,
		"log-file":  &o.LogFile,
		"timezone":  &o.Timezone,
		"log-level": &o.LogLevel,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return o, err
		}
		*dst = &v
	}

	for name, dst := range map[string]**bool{
		"per-target": &o.PerTarget,
		"sync":       &o.SyncWrites,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return o, err
		}
		*dst = &v
	}

	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return o, err
	}
	o.DryRun = dryRun

	otel, err := flags.GetBool("otel")
	if err != nil {
		return o, err
	}
	o.OTelEnabled = otel

	return o, nil
}

// loadConfig resolves the effective config for a subcommand.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	o, err := overridesFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	return config.Load(o)
}
