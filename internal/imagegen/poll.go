package imagegen

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrPollExhausted is returned when every attempt ran without a result.
var ErrPollExhausted = stderrors.New("polling attempts exhausted")

// errPending marks a check that found the task still running.
var errPending = stderrors.New("task pending")

// terminalError is a provider-reported failure that ends polling at once.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// terminal wraps err so Poll stops without spending the remaining attempts.
func terminal(format string, args ...any) error {
	return &terminalError{err: fmt.Errorf(format, args...)}
}

// Poller runs a status check at most Attempts times, waiting Interval
// before each one. Transient errors spend an attempt; terminal errors and
// context cancellation stop immediately.
type Poller struct {
	Attempts int
	Interval time.Duration
}

// Poll runs check until it reports done. check returns done=false with a
// nil error while the task is still running.
func (p Poller) Poll(ctx context.Context, check func(ctx context.Context) (done bool, err error)) error {
	if p.Attempts <= 0 {
		return ErrPollExhausted
	}
	// go-retry rejects non-positive intervals.
	interval := p.Interval
	if interval <= 0 {
		interval = time.Nanosecond
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(interval):
	}

	backoff := retry.WithMaxRetries(uint64(p.Attempts-1), retry.NewConstant(interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		done, err := check(ctx)
		var term *terminalError
		switch {
		case stderrors.As(err, &term):
			return term
		case err != nil:
			return retry.RetryableError(err)
		case !done:
			return retry.RetryableError(errPending)
		}
		return nil
	})
	if stderrors.Is(err, errPending) {
		return ErrPollExhausted
	}
	return err
}
