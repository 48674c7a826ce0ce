package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Do runs fn up to attempts times, sleeping base, 2*base, 4*base, ... between
// tries. Only transient connection failures are retried; any other error is
// returned immediately.
func Do(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	var err error
	delay := base
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !Transient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

// Transient reports whether err looks like a connection-level failure that a
// fresh attempt may survive, as opposed to a statement error that will fail
// the same way every time.
func Transient(err error) bool {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	return false
}
