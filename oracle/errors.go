package oracle

import (
	"errors"
	"strings"
)

var (
	ErrTimeout     = errors.New("oracle: call timed out")
	ErrRateLimited = errors.New("oracle: rate limited")
	ErrUnavailable = errors.New("oracle: unavailable")
	ErrNoJSON      = errors.New("oracle: no JSON object in response")
)

var rateLimitMarkers = []string{"429", "rate limit", "rate_limit", "quota", "too many requests", "throttl"}

// LooksRateLimited reports whether an error message from a backend reads like
// a throttling response. Backends that can tell for sure return ErrRateLimited.
func LooksRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
