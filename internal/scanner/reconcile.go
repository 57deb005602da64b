package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ListenersOn returns the listeners bound to port.
func ListenersOn(s Scanner, port int) ([]Listener, error) {
	all, err := s.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan listeners: %w", err)
	}

	var on []Listener
	for _, l := range all {
		if l.Port == port {
			on = append(on, l)
		}
	}
	return on, nil
}

// ReleaseOptions tunes how ReleasePort waits for a socket to come free.
type ReleaseOptions struct {
	// Settle is a fixed pause after the kills, before verification starts.
	// Kernels hold sockets briefly after process exit.
	Settle time.Duration

	// Interval spaces the verification re-scans.
	Interval time.Duration

	// Timeout bounds the verification.
	Timeout time.Duration
}

// ReleasePort terminates every listener on port and waits until the port is
// actually free. It returns the listeners that were terminated; an empty
// slice means the port was already free. Only PIDs discovered by the scan
// are signalled.
func ReleasePort(ctx context.Context, s Scanner, port int, opts ReleaseOptions) ([]Listener, error) {
	victims, err := ListenersOn(s, port)
	if err != nil {
		return nil, err
	}
	if len(victims) == 0 {
		return nil, nil
	}

	for _, v := range victims {
		if err := s.Kill(v.PID, false); err != nil {
			return victims, fmt.Errorf("failed to kill %s (PID %d) on port %d: %w", v.Process, v.PID, port, err)
		}
	}

	if opts.Settle > 0 {
		select {
		case <-time.After(opts.Settle):
		case <-ctx.Done():
			return victims, ctx.Err()
		}
	}

	verifyCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var lastErr error
	check := func() error {
		remaining, err := ListenersOn(s, port)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(remaining) > 0 {
			lastErr = fmt.Errorf("port %d still in use by %s (PID %d)", port, remaining[0].Process, remaining[0].PID)
			return lastErr
		}
		lastErr = nil
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(opts.Interval), verifyCtx)
	if err := backoff.Retry(check, b); err != nil {
		// Retry reports the context error once the timeout lapses; the
		// last scan names the actual holder.
		if lastErr != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			return victims, lastErr
		}
		return victims, err
	}

	return victims, nil
}
