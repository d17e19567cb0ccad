// File: internal/settle/settle.go
//
// Post-action stability detection. After an input action the screen is
// polled with cheap downsampled captures until consecutive samples differ
// below a noise threshold, or a wall-clock budget runs out. This is a
// best-effort debounce, not a correctness guarantee: it never blocks past
// the budget and never fails on timeout.
package settle

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sampler produces one cursor-free, downsampled screen sample. Injected so
// the detector can be driven by canned byte sequences in tests.
type Sampler func(ctx context.Context) ([]byte, error)

// Config carries the polling policy.
type Config struct {
	Enabled              bool
	MaxWait              time.Duration
	CheckInterval        time.Duration
	ChangeRatioThreshold float64
	RequiredStable       int
}

// DefaultConfig mirrors the tuned production values: up to 2.5s of polling
// at 100ms intervals, declaring stability when under 0.6% of sample bytes
// change twice in a row.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		MaxWait:              2500 * time.Millisecond,
		CheckInterval:        100 * time.Millisecond,
		ChangeRatioThreshold: 0.006,
		RequiredStable:       2,
	}
}

// Detector polls samples until the screen settles.
type Detector struct {
	sample Sampler
	cfg    Config
	logger *zap.Logger
}

func New(sample Sampler, cfg Config, logger *zap.Logger) *Detector {
	return &Detector{sample: sample, cfg: cfg, logger: logger.Named("settle")}
}

// Wait blocks until the screen is stable, the budget elapses, or the context
// is cancelled. Timeout is not an error; a failed sample is (capture
// failures are fatal upstream).
func (d *Detector) Wait(ctx context.Context) error {
	if !d.cfg.Enabled {
		return nil
	}

	deadline := time.Now().Add(d.cfg.MaxWait)
	var prev []byte
	streak := 0

	for time.Now().Before(deadline) {
		if err := sleepCtx(ctx, d.cfg.CheckInterval); err != nil {
			return err
		}

		curr, err := d.sample(ctx)
		if err != nil {
			return err
		}

		if prev != nil {
			ratio := changedRatio(prev, curr)
			if ratio < d.cfg.ChangeRatioThreshold {
				streak++
				if streak >= d.cfg.RequiredStable {
					return nil
				}
			} else {
				streak = 0
			}
		}
		prev = curr
	}

	d.logger.Debug("screen did not settle within budget",
		zap.Duration("max_wait", d.cfg.MaxWait))
	return nil
}

// changedRatio is the fraction of differing bytes between two samples.
func changedRatio(prev, curr []byte) float64 {
	if len(curr) == 0 {
		return 0
	}
	n := len(curr)
	if len(prev) < n {
		n = len(prev)
	}
	changed := len(curr) - n // length mismatch counts as change
	for i := 0; i < n; i++ {
		if prev[i] != curr[i] {
			changed++
		}
	}
	return float64(changed) / float64(len(curr))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
