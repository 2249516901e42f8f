package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Jitter          float64 // fraction of the delay randomized, 0..1
	MaxTotalTimeout time.Duration
	// RetryIf decides whether an error is worth retrying; nil retries all
	RetryIf func(error) bool
}

// DefaultConfig returns a default retry configuration with 1 minute max timeout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		Jitter:          0.2,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// Do executes the given function with exponential backoff retry logic
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return DoWithLog(ctx, cfg, "retry", fn, nil)
}

// DoWithLog executes the function with retry and logs each failed attempt
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%s: retry aborted after %d attempts: %w (last error: %v)", serviceName, attempt-1, ctx.Err(), lastErr)
			}
			return fmt.Errorf("%s: retry aborted: %w", serviceName, ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return err
		}

		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("%s: max retry attempts (%d) exceeded: %w", serviceName, cfg.MaxAttempts, lastErr)
		}

		if logFn != nil {
			logFn(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: retry aborted after %d attempts: %w (last error: %v)", serviceName, attempt, ctx.Err(), lastErr)
		case <-time.After(jittered(delay, cfg.Jitter)):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("%s: max retry attempts exceeded: %w", serviceName, lastErr)
}

// jittered spreads the delay by up to frac in either direction so that
// competing callers do not retry in lockstep
func jittered(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	if frac > 1 {
		frac = 1
	}
	spread := float64(d) * frac
	return time.Duration(float64(d) - spread/2 + rand.Float64()*spread)
}
