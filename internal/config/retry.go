package config

import (
	"strings"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/normalization"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = normalization.NewEnum("fonts.retry.mode", map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"constant":    RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
})

// NormalizeRetryBackoff converts user input into a typed mode. Blank input
// yields "".
func NormalizeRetryBackoff(raw string) (RetryBackoffMode, error) {
	return retryBackoffModes.Parse(raw)
}

// RetryConfig holds raw retry settings for remote fetches.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode"`
	Initial    string           `yaml:"initial"`
	Max        string           `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// InitialDelay parses Initial; zero means "use the policy default".
func (r RetryConfig) InitialDelay() time.Duration { return parseDurationOrZero(r.Initial) }

// MaxDelay parses Max; zero means "use the policy default".
func (r RetryConfig) MaxDelay() time.Duration { return parseDurationOrZero(r.Max) }

func parseDurationOrZero(raw string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return d
}
