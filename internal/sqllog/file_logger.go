package sqllog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/guillermoBallester/querylog/internal/core/domain"
	"github.com/guillermoBallester/querylog/internal/core/port"
)

// ErrIO marks failures to open, lock, write or close a destination file.
var ErrIO = errors.New("statement log I/O")

const fileExt = ".sql"

// Option configures a FileLogger.
type Option func(*FileLogger)

// WithClock overrides the time source used when an event carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(l *FileLogger) { l.now = now }
}

// WithLocation renders record timestamps in loc instead of the event's own zone.
func WithLocation(loc *time.Location) Option {
	return func(l *FileLogger) { l.loc = loc }
}

// WithSync fsyncs each record before the lock is released.
func WithSync(fsync bool) Option {
	return func(l *FileLogger) { l.fsync = fsync }
}

// FileLogger appends statement records to a single .sql file.
//
// The destination is either fixed at construction or derived from the first
// valid target as <dir>/<target>.sql. Once resolved it never changes.
type FileLogger struct {
	dir   string
	now   func() time.Time
	loc   *time.Location
	fsync bool

	mu   sync.Mutex
	path string
}

// New returns a logger writing under dir, or to explicitPath when it is non-empty.
func New(dir, explicitPath string, opts ...Option) *FileLogger {
	l := &FileLogger{
		dir:  dir,
		path: explicitPath,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Destination returns the resolved file path, or "" if no record has resolved it yet.
func (l *FileLogger) Destination() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Record appends one record for ev. It blocks until the file lock is acquired.
// Empty statements are rejected with domain.ErrEmptyStatement and nothing is written.
func (l *FileLogger) Record(_ context.Context, ev port.StatementEvent) error {
	normalized, err := domain.Normalize(ev.Statement)
	if err != nil {
		return err
	}

	path, err := l.resolve(ev.Target)
	if err != nil {
		return err
	}

	ts := ev.Time
	if ts.IsZero() {
		ts = l.now()
	}
	if l.loc != nil {
		ts = ts.In(l.loc)
	}

	return appendLocked(path, domain.FormatRecord(ts, ev.Outcome, normalized), l.fsync)
}

func (l *FileLogger) resolve(target string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path != "" {
		return l.path, nil
	}
	if err := domain.ValidateTarget(target); err != nil {
		return "", fmt.Errorf("%w: %q", err, target)
	}
	l.path = filepath.Join(l.dir, target+fileExt)
	return l.path, nil
}

// appendLocked writes record to path while holding an exclusive advisory lock,
// so concurrent writers in any process never interleave within a record.
func appendLocked(path, record string, fsync bool) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrIO, cerr)
		}
	}()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("%w: locking %s: %w", ErrIO, path, err)
	}
	defer func() {
		if uerr := unlockFile(f); uerr != nil && err == nil {
			err = fmt.Errorf("%w: unlocking %s: %w", ErrIO, path, uerr)
		}
	}()

	if _, err := f.WriteString(record); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if fsync {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	return nil
}

// NoopLogger discards all statement events.
type NoopLogger struct{}

func (NoopLogger) Record(context.Context, port.StatementEvent) error { return nil }
