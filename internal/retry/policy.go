// Package retry retries remote fetches with configurable backoff.
package retry

import (
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/config"
)

// Policy describes how often and how patiently a failed fetch is retried.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration // delay before the first retry
	Max        time.Duration // upper bound for any single delay
	MaxRetries int           // retries after the first attempt
}

// DefaultPolicy is exponential from 500ms, capped at 5s, two retries.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffExponential,
		Initial:    500 * time.Millisecond,
		Max:        5 * time.Second,
		MaxRetries: 2,
	}
}

// NewPolicy overlays the given values on DefaultPolicy. Non-positive
// durations, negative retry counts and unknown modes keep the default.
// Initial is clamped to Max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the policy for the fonts retry block.
func FromConfig(rc config.RetryConfig) Policy {
	return NewPolicy(rc.Mode, rc.InitialDelay(), rc.MaxDelay(), rc.MaxRetries)
}

// Delay is the wait before retry n (1-based). n <= 0 yields zero.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		// Shifting past 30 overflows for any realistic Initial.
		if n > 30 {
			return p.Max
		}
		d = p.Initial << (n - 1)
	default:
		d = p.Initial * time.Duration(n)
	}
	return min(d, p.Max)
}
