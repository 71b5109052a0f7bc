package unittest

import (
	"flag"
	"io"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

// Logger returns a zerolog for tests.
// Use the -vv flag to print debugging logs.
func Logger() zerolog.Logger {
	writer := io.Discard
	if *verbose {
		writer = os.Stderr
	}
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return log
}

// RequireCloseBefore requires that the given channel closes before the
// duration expires.
func RequireCloseBefore(t testing.TB, c <-chan struct{}, duration time.Duration, message string) {
	select {
	case <-c:
	case <-time.After(duration):
		require.Fail(t, "channel did not close in time", message)
	}
}

func TempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "multiphase-testing-temp-")
	require.NoError(t, err)
	return dir
}

func RunWithTempDir(t testing.TB, f func(string)) {
	dir := TempDir(t)
	defer os.RemoveAll(dir)
	f(dir)
}

func BadgerDB(t testing.TB, dir string) *badger.DB {
	opts := badger.
		DefaultOptions(dir).
		WithKeepL0InMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	return db
}

func RunWithBadgerDB(t testing.TB, f func(*badger.DB)) {
	RunWithTempDir(t, func(dir string) {
		db := BadgerDB(t, dir)
		defer db.Close()
		f(db)
	})
}
