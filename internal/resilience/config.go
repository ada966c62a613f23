package resilience

import (
	"time"
)

// SearchRetryConfig builds the retry policy for directory search from
// pipeline settings. retries is the number of extra attempts after the
// first; backoffMs is the delay before the first retry.
func SearchRetryConfig(retries, backoffMs int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 1
	if retries > 0 {
		cfg.MaxAttempts = retries + 1
	}
	if backoffMs > 0 {
		cfg.InitialBackoff = time.Duration(backoffMs) * time.Millisecond
	}
	cfg.MaxBackoff = 10 * cfg.InitialBackoff
	cfg.JitterFraction = 0.1
	return cfg
}
