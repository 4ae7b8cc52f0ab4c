package domain

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

var (
	ErrEmptyStatement = errors.New("empty statement")
	ErrInvalidTarget  = errors.New("invalid target")
)

// TimestampLayout is the second-precision layout used in record headers.
const TimestampLayout = "2006-01-02 15:04:05"

// Outcome is the discriminated result of a statement execution.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
)

// OutcomeFromFailed maps a host's failure flag to an Outcome.
func OutcomeFromFailed(failed bool) Outcome {
	if failed {
		return OutcomeFailed
	}
	return OutcomeSuccess
}

// String returns the status as it appears in the log file.
func (o Outcome) String() string {
	if o == OutcomeFailed {
		return "FAILED"
	}
	return "SUCCESS"
}

// Normalize strips trailing whitespace and terminators, then appends exactly one ';'.
// It returns ErrEmptyStatement when nothing is left.
func Normalize(statement string) (string, error) {
	trimmed := strings.TrimRightFunc(statement, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
	if strings.TrimSpace(trimmed) == "" {
		return "", ErrEmptyStatement
	}
	return trimmed + ";", nil
}

// FormatRecord renders one log record: header line, normalized statement, blank line.
func FormatRecord(ts time.Time, outcome Outcome, normalized string) string {
	var b strings.Builder
	b.Grow(len(normalized) + 48)
	b.WriteString("-- ")
	b.WriteString(ts.Format(TimestampLayout))
	b.WriteString(" | Status: ")
	b.WriteString(outcome.String())
	b.WriteByte('\n')
	b.WriteString(normalized)
	b.WriteString("\n\n")
	return b.String()
}

// Target builds a destination key from a database name and an optional namespace
// (schema), e.g. "shop" or "shop.public".
func Target(database, namespace string) string {
	if namespace == "" {
		return database
	}
	return database + "." + namespace
}

// ValidateTarget rejects targets that are not a single, plain path element.
func ValidateTarget(target string) error {
	switch {
	case target == "", target == ".", target == "..":
		return ErrInvalidTarget
	case strings.ContainsAny(target, `/\`+"\x00"):
		return ErrInvalidTarget
	}
	return nil
}
