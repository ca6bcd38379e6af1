package domain

import "context"

// LenderQueueRepository is the abstraction for any kind of database
// intended to persist LenderQueues and their ledgers.
type LenderQueueRepository interface {
	// AddQueue adds a new queue to the repository.
	AddQueue(ctx context.Context, queue *LenderQueue) error
	// GetQueueByName returns the queue with the given name.
	GetQueueByName(ctx context.Context, name string) (*LenderQueue, error)
	// GetAllQueues returns all queues.
	GetAllQueues(ctx context.Context) ([]LenderQueue, error)
	// UpdateQueue updates the state of a queue. The closure function lets
	// callers commit multiple changes to a certain queue in a
	// transactional way: if it returns an error no change is persisted.
	UpdateQueue(
		ctx context.Context,
		name string, updateFn func(q *LenderQueue) (*LenderQueue, error),
	) error
}
