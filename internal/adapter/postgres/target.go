package postgres

import (
	"fmt"

	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// TargetFromDSN derives a log target from a PostgreSQL connection string
// (URL or keyword/value form) and an optional namespace. It never connects.
func TargetFromDSN(dsn, namespace string) (string, error) {
	config, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing database URL: %w", err)
	}
	if config.Database == "" {
		return "", fmt.Errorf("%w: connection string names no database", domain.ErrInvalidTarget)
	}

	target := domain.Target(config.Database, namespace)
	if err := domain.ValidateTarget(target); err != nil {
		return "", fmt.Errorf("%w: %q", err, target)
	}
	return target, nil
}
