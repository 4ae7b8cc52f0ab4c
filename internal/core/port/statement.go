package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/guillermoBallester/querylog/internal/core/domain"
)

// StatementEvent is a single statement execution reported by a host.
type StatementEvent struct {
	ID        uuid.UUID
	Statement string
	Outcome   domain.Outcome
	Target    string
	Time      time.Time     // zero means "now" per the logger's clock
	Duration  time.Duration // host-reported execution time; never written to the log file
}

// StatementLogger appends statement records to durable storage.
type StatementLogger interface {
	Record(ctx context.Context, ev StatementEvent) error
}

// StatementHook is the call surface hosts use to report executed statements.
type StatementHook interface {
	Handle(ctx context.Context, ev StatementEvent) error
}
