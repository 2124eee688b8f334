package retry

import "time"

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt (base * 2^attempt) and never exceeds
// limit when limit > 0.
func ExponentialBackoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * (1 << attempt)
	if limit > 0 && (d > limit || d < 0) {
		return limit
	}
	return d
}
