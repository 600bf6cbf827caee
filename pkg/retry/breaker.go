package retry

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewBreaker constructs a gobreaker.CircuitBreaker for one external
// collaborator (search, ad archive, or warehouse AI), opening after a
// majority of the last several requests fail.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}
