package application

import "errors"

var (
	// ErrQueueBlocked is returned when processing is requested for a queue
	// whose batch settlement is already in flight.
	ErrQueueBlocked = errors.New("queue is already being processed")
	// ErrUnknownStrategy is returned for a queue configured with a
	// settlement strategy the engine cannot build.
	ErrUnknownStrategy = errors.New("settlement strategy not supported")
	// ErrMissingRedemptionPool is returned when a pool-redemption queue is
	// settled while no redemption pool collaborator is wired.
	ErrMissingRedemptionPool = errors.New("no redemption pool is configured")
	// ErrCustodyShortfall is returned when a queue's custody account cannot
	// cover the bonded fees of a batch about to settle.
	ErrCustodyShortfall = errors.New("queue custody cannot cover the batch's bonded fees")
)
