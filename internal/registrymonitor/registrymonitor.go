// Package registrymonitor polls a registry for a package version to become
// available after publish, with exponential backoff and jitter. No repo in
// the corpus implements this exact algorithm, so it is hand-rolled against
// the standard library's time and math/rand rather than borrowed wholesale;
// see DESIGN.md for why.
package registrymonitor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shipwright-release/shipwright/internal/capability"
)

// Options configures WaitFor's polling schedule. Zero values are replaced
// with spec.md §4.7's defaults by WaitFor.
type Options struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
	MaxAttempts  int

	// Sleep is overridable for tests; defaults to time.Sleep via a
	// context-aware wrapper.
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 60 * time.Second
	DefaultTimeout      = 300 * time.Second
	DefaultMaxAttempts  = 30

	backoffMultiplier = 1.5
	jitterFraction    = 0.10
)

// ErrTimeout is returned when total elapsed time exceeds opts.Timeout.
var ErrTimeout = errors.New("registry monitor: timed out waiting for availability")

// ErrMaxAttempts is returned when opts.MaxAttempts polls have all reported
// the version unavailable.
var ErrMaxAttempts = errors.New("registry monitor: exceeded max attempts waiting for availability")

func withDefaults(opts Options) Options {
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Sleep == nil {
		opts.Sleep = ctxSleep
	}
	return opts
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitFor polls registry.IsAvailable(name, version) until it reports true,
// sleeping delay (with 10% uniform positive jitter) between attempts and
// multiplying delay by 1.5 (capped at MaxDelay) after each one. Aborts with
// ErrTimeout once elapsed reaches Timeout, or ErrMaxAttempts once
// MaxAttempts polls have reported unavailable.
func WaitFor(ctx context.Context, registry capability.Registry, name, version string, opts Options) error {
	opts = withDefaults(opts)

	start := time.Now()
	delay := opts.InitialDelay
	attempts := 0

	for {
		attempts++

		available, err := registry.IsAvailable(ctx, name, version)
		if err != nil {
			return fmt.Errorf("check availability of %s@%s: %w", name, version, err)
		}
		if available {
			return nil
		}

		if attempts >= opts.MaxAttempts {
			return fmt.Errorf("%w: %s@%s after %d attempts", ErrMaxAttempts, name, version, attempts)
		}
		if time.Since(start) >= opts.Timeout {
			return fmt.Errorf("%w: %s@%s after %s", ErrTimeout, name, version, time.Since(start))
		}

		sleepFor := jittered(delay)
		if err := opts.Sleep(ctx, sleepFor); err != nil {
			return fmt.Errorf("wait for %s@%s: %w", name, version, err)
		}

		if time.Since(start) >= opts.Timeout {
			return fmt.Errorf("%w: %s@%s after %s", ErrTimeout, name, version, time.Since(start))
		}

		delay = time.Duration(float64(delay) * backoffMultiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}

// jittered adds up to 10% uniform positive jitter to d.
func jittered(d time.Duration) time.Duration {
	jitter := time.Duration(rand.Float64() * jitterFraction * float64(d))
	return d + jitter
}
