package host

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/pagedeck/pdk/internal/playlist"
)

// RetryConfig defines retry behavior for host operations.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns sensible defaults for remote hosts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryHost wraps a Host with exponential-backoff retries.
type RetryHost struct {
	host   Host
	config RetryConfig
}

// NewRetryHost wraps host with retry logic.
func NewRetryHost(host Host, config RetryConfig) *RetryHost {
	return &RetryHost{host: host, config: config}
}

// Snapshot implements Host with retries. ErrNoSnapshot is terminal.
func (r *RetryHost) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := r.retry(ctx, func() error {
		var err error
		snap, err = r.host.Snapshot(ctx)
		if errors.Is(err, ErrNoSnapshot) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// PushConfig implements Host with retries.
func (r *RetryHost) PushConfig(ctx context.Context, cfg playlist.Config) error {
	return r.retry(ctx, func() error {
		return r.host.PushConfig(ctx, cfg)
	})
}

func (r *RetryHost) retry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay(attempt)):
			}
		}
		if lastErr = op(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (r *RetryHost) delay(attempt int) time.Duration {
	d := float64(r.config.BaseDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	return time.Duration(d)
}
