// Package retry drives operations through bounded retries with
// exponential backoff and optional jitter.
package retry

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/al-mudeer/resilience/pkg/config"
)

// Policy is the immutable backoff configuration for a retry sequence.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	GrowthFactor float64
	Jitter       bool
}

// DefaultPolicy returns the platform-wide retry defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		GrowthFactor: 2.0,
		Jitter:       true,
	}
}

// PolicyFromConfig builds a Policy from the loaded configuration section.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		GrowthFactor: cfg.GrowthFactor,
		Jitter:       cfg.Jitter,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return errors.New("max retries must be non-negative")
	}
	if p.InitialDelay <= 0 {
		return errors.New("initial delay must be positive")
	}
	if p.MaxDelay < p.InitialDelay {
		return errors.New("max delay must be at least the initial delay")
	}
	if p.GrowthFactor <= 1 {
		return errors.New("growth factor must be greater than 1")
	}
	return nil
}

// backoff computes the delay before retry number attempt+1, where attempt
// counts completed failed attempts starting at zero. The delay grows as
// InitialDelay * GrowthFactor^attempt, capped at MaxDelay, then scaled by a
// uniform [0.5, 1.0) factor when jitter is enabled.
func (p Policy) backoff(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.GrowthFactor, float64(attempt))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter {
		delay *= 0.5 + rand.Float64()*0.5
	}

	return time.Duration(delay)
}
