package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no terminator", in: "SELECT * FROM users", want: "SELECT * FROM users;"},
		{name: "single terminator", in: "SELECT 1;", want: "SELECT 1;"},
		{name: "repeated terminators", in: "DROP TABLE x;;;", want: "DROP TABLE x;"},
		{name: "trailing whitespace", in: "SELECT 1 \n\t", want: "SELECT 1;"},
		{name: "mixed whitespace and terminators", in: "SELECT 1; ;\n ; ", want: "SELECT 1;"},
		{name: "leading whitespace kept", in: "  SELECT 1", want: "  SELECT 1;"},
		{name: "embedded terminators kept", in: "SELECT 1; SELECT 2", want: "SELECT 1; SELECT 2;"},
		{name: "embedded newlines kept", in: "SELECT id\nFROM users\n", want: "SELECT id\nFROM users;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", ";", " ;; \n", "\n;\t"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrEmptyStatement, "input %q", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"SELECT 1", "DROP TABLE x;;;", "UPDATE t SET a = ';' ;\n"} {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	for _, in := range []string{"SELECT 1", "DELETE FROM t WHERE x = 1;; ", "BEGIN;\nCOMMIT"} {
		normalized, err := Normalize(in)
		require.NoError(t, err)

		again, err := Normalize(strings.TrimSuffix(normalized, ";"))
		require.NoError(t, err)
		assert.Equal(t, normalized, again)
	}
}

func TestFormatRecord(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	got := FormatRecord(ts, OutcomeSuccess, "SELECT * FROM users;")
	assert.Equal(t, "-- 2024-01-01 12:00:00 | Status: SUCCESS\nSELECT * FROM users;\n\n", got)

	got = FormatRecord(ts.Add(1500*time.Millisecond), OutcomeFailed, "DROP TABLE x;")
	assert.Equal(t, "-- 2024-01-01 12:00:01 | Status: FAILED\nDROP TABLE x;\n\n", got)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeFailed, OutcomeFromFailed(true))
	assert.Equal(t, OutcomeSuccess, OutcomeFromFailed(false))
	assert.Equal(t, "FAILED", OutcomeFailed.String())
	assert.Equal(t, "SUCCESS", OutcomeSuccess.String())
}

func TestTarget(t *testing.T) {
	assert.Equal(t, "mydb", Target("mydb", ""))
	assert.Equal(t, "mydb.public", Target("mydb", "public"))
}

func TestValidateTarget(t *testing.T) {
	for _, ok := range []string{"mydb", "mydb.public", "my-db_1", "..hidden"} {
		assert.NoError(t, ValidateTarget(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "../etc", "a/b", `a\b`, "a\x00b"} {
		assert.ErrorIs(t, ValidateTarget(bad), ErrInvalidTarget, bad)
	}
}
