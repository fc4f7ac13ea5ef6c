package testlog

import (
	"testing"

	"github.com/rs/zerolog"
)

// New returns a logger that writes through t, so session internals show
// up interleaved with test output and only when the test fails.
func New(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
}
