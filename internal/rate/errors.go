package rate

import "errors"

var (
	// ErrRateLimited reports that the attempt budget for a key is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps any Redis transport failure so callers can
	// decide between fail-open and fail-closed.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
