package circuitbreaker

import "github.com/sony/gobreaker"

// Trip thresholds of a notification breaker. A breaker opens once at
// least MinRequests have been observed and at least FailureRatio of them
// failed, shedding load from an endpoint that keeps erroring.
var (
	MinRequests  uint32 = 5
	FailureRatio        = 0.5
)

// New returns a named *gobreaker.CircuitBreaker tripping on the
// package's thresholds.
func New(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= FailureRatio
		},
	})
}
