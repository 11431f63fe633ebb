package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestCalculateHash_Deterministic(t *testing.T) {
	b := []byte("payload")
	got := CalculateHash(b, "key")
	require.Equal(t, got, CalculateHash(b, "key"))
	require.NotEqual(t, CalculateHash(b, "other"), got)
	require.True(t, ValidHash(b, "key", got))
	require.False(t, ValidHash(b, "other", got))
	require.False(t, ValidHash(b, "key", "not-hex"))
}

func TestPointerHelpers(t *testing.T) {
	require.True(t, *BoolPtr(true))
}

type tempErr struct{}

func (tempErr) Error() string   { return "temp" }
func (tempErr) Timeout() bool   { return true } // net.Error
func (tempErr) Temporary() bool { return true }

func withFastDelays(t *testing.T) {
	old := RetryDelays
	RetryDelays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { RetryDelays = old })
}

func TestWithRetry_RetriesAndSucceeds(t *testing.T) {
	withFastDelays(t)
	var n int
	err := WithRetry(context.Background(), func() error {
		n++
		if n < 2 {
			return tempErr{}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestWithRetry_GivesUpAfterDelays(t *testing.T) {
	withFastDelays(t)
	var n int
	err := WithRetry(context.Background(), func() error {
		n++
		return tempErr{}
	})
	require.Error(t, err)
	require.Equal(t, 4, n)
}

func TestWithRetry_NonRetriableReturnsImmediately(t *testing.T) {
	var n int
	err := WithRetry(context.Background(), func() error {
		n++
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.Equal(t, 1, n)
}

func TestWithRetry_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var n int
	err := WithRetry(ctx, func() error {
		n++
		return tempErr{}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, n)
}

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"pg-conn-failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, true},
		{"pg-unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
		{"net-error", &net.DNSError{Err: "x"}, true},
		{"os-deadline", os.ErrDeadlineExceeded, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsRetriable(tc.err))
		})
	}
}
