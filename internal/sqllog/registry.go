package sqllog

import (
	"context"
	"fmt"
	"sync"

	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
)

// Registry routes events to one FileLogger per target, for long-lived hosts
// that serve several databases. Each logger still pins its own destination.
type Registry struct {
	dir  string
	opts []Option

	mu      sync.Mutex
	loggers map[string]*FileLogger
}

func NewRegistry(dir string, opts ...Option) *Registry {
	return &Registry{
		dir:     dir,
		opts:    opts,
		loggers: make(map[string]*FileLogger),
	}
}

// Record routes ev to its target's logger. Empty statements are rejected with
// domain.ErrEmptyStatement before the target is looked at, as FileLogger does.
func (r *Registry) Record(ctx context.Context, ev port.StatementEvent) error {
	if _, err := domain.Normalize(ev.Statement); err != nil {
		return err
	}
	l, err := r.logger(ev.Target)
	if err != nil {
		return err
	}
	return l.Record(ctx, ev)
}

// Destinations returns the resolved path of every target seen so far.
func (r *Registry) Destinations() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.loggers))
	for target, l := range r.loggers {
		if p := l.Destination(); p != "" {
			out[target] = p
		}
	}
	return out
}

func (r *Registry) logger(target string) (*FileLogger, error) {
	if err := domain.ValidateTarget(target); err != nil {
		return nil, fmt.Errorf("%w: %q", err, target)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loggers[target]
	if !ok {
		l = New(r.dir, "", r.opts...)
		r.loggers[target] = l
	}
	return l, nil
}
