package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"
)

// defaultBase is the backoff unit: the first delay is twice this value.
const defaultBase = 1 * time.Second

// Frequency selects a retry profile at startup.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Policy bounds the retry loop for a whole run.
type Policy struct {
	MaxAttempts int           // Total attempts, including the first
	MaxWait     time.Duration // Backoff ceiling
	Base        time.Duration // Backoff unit; zero means 1s
}

// ProfileFor returns the retry profile for a run frequency. Less frequent
// runs get a larger attempt budget since there is more time to spend.
// Unknown frequencies fall back to the weekly profile.
func ProfileFor(freq Frequency) Policy {
	switch freq {
	case FrequencyDaily:
		return Policy{MaxAttempts: 5, MaxWait: 30 * time.Second}
	case FrequencyMonthly:
		return Policy{MaxAttempts: 30, MaxWait: 180 * time.Second}
	default:
		return Policy{MaxAttempts: 15, MaxWait: 90 * time.Second}
	}
}

// StatusError is a connectivity failure carrying an HTTP status code.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d (%s) fetching %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Retryable reports whether the status is on the transient allow-list.
// Everything else (400, 401, 403, 404, 500, ...) is terminal.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ShouldRetry classifies a failure. Timeouts are always retryable; status
// failures only when the code is on the allow-list; anything else is
// terminal.
func (p Policy) ShouldRetry(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

// Backoff returns the delay after the given failed attempt (counted from 1):
// min(MaxWait, base * 2^(attempt-1)), floored at two base units regardless
// of attempt number.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.Base
	if base == 0 {
		base = defaultBase
	}
	if attempt < 1 {
		attempt = 1
	}

	d := p.MaxWait
	if shift := uint(attempt - 1); shift < 30 {
		if v := base << shift; v < d {
			d = v
		}
	}
	if floor := 2 * base; d < floor {
		d = floor
	}
	return d
}

// Do runs fn up to p.MaxAttempts times, sleeping the backoff between
// attempts. Terminal failures return immediately without consuming further
// attempts. When the budget is exhausted the original failure is returned,
// not a wrapper, so callers can still classify it.
func Do(ctx context.Context, p Policy, logger *slog.Logger, op string, fn func() error) error {
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !p.ShouldRetry(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Backoff(attempt)
		logger.Debug("retrying after transient failure",
			"op", op,
			"attempt", attempt,
			"backoff", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
