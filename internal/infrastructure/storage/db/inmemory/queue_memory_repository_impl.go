package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/consol-protocol/consold/internal/core/domain"
)

type lenderQueueRepositoryImpl struct {
	lock   sync.Mutex
	queues map[string]*domain.LenderQueue
}

// NewLenderQueueRepositoryImpl initializes an in-memory implementation
// of the domain.LenderQueueRepository.
func NewLenderQueueRepositoryImpl() domain.LenderQueueRepository {
	return &lenderQueueRepositoryImpl{
		queues: make(map[string]*domain.LenderQueue),
	}
}

func (r *lenderQueueRepositoryImpl) AddQueue(
	_ context.Context, queue *domain.LenderQueue,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.queues[queue.Name]; ok {
		return domain.ErrQueueAlreadyExists
	}
	r.queues[queue.Name] = copyQueue(queue)
	return nil
}

func (r *lenderQueueRepositoryImpl) GetQueueByName(
	_ context.Context, name string,
) (*domain.LenderQueue, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	queue, ok := r.queues[name]
	if !ok {
		return nil, domain.ErrQueueNotFound
	}
	return copyQueue(queue), nil
}

func (r *lenderQueueRepositoryImpl) GetAllQueues(
	_ context.Context,
) ([]domain.LenderQueue, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	queues := make([]domain.LenderQueue, 0, len(r.queues))
	for _, queue := range r.queues {
		queues = append(queues, *copyQueue(queue))
	}
	sort.Slice(queues, func(i, j int) bool {
		return queues[i].Name < queues[j].Name
	})
	return queues, nil
}

func (r *lenderQueueRepositoryImpl) UpdateQueue(
	_ context.Context,
	name string, updateFn func(q *domain.LenderQueue) (*domain.LenderQueue, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	queue, ok := r.queues[name]
	if !ok {
		return domain.ErrQueueNotFound
	}

	// The closure works on a copy so nothing is persisted when it fails.
	updated, err := updateFn(copyQueue(queue))
	if err != nil {
		return err
	}

	r.queues[name] = copyQueue(updated)
	return nil
}

func copyQueue(queue *domain.LenderQueue) *domain.LenderQueue {
	q := *queue
	q.Ledger.Rows = make([]domain.WithdrawalRequest, len(queue.Ledger.Rows))
	copy(q.Ledger.Rows, queue.Ledger.Rows)
	return &q
}
