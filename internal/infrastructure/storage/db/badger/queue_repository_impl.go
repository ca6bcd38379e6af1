package dbbadger

import (
	"context"
	"sync"

	"github.com/timshannon/badgerhold/v4"

	"github.com/consol-protocol/consold/internal/core/domain"
)

type lenderQueueRepositoryImpl struct {
	store *badgerhold.Store
	// serializes read-modify-write cycles of UpdateQueue.
	lock sync.Mutex
}

// NewLenderQueueRepositoryImpl initializes a badger implementation of
// the domain.LenderQueueRepository.
func NewLenderQueueRepositoryImpl(
	store *badgerhold.Store,
) domain.LenderQueueRepository {
	return &lenderQueueRepositoryImpl{store: store}
}

func (r *lenderQueueRepositoryImpl) AddQueue(
	_ context.Context, queue *domain.LenderQueue,
) error {
	if err := r.store.Insert(queue.Name, *queue); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrQueueAlreadyExists
		}
		return err
	}
	return nil
}

func (r *lenderQueueRepositoryImpl) GetQueueByName(
	_ context.Context, name string,
) (*domain.LenderQueue, error) {
	return r.getQueue(name)
}

func (r *lenderQueueRepositoryImpl) GetAllQueues(
	_ context.Context,
) ([]domain.LenderQueue, error) {
	var queues []domain.LenderQueue
	query := (&badgerhold.Query{}).SortBy("Name")
	if err := r.store.Find(&queues, query); err != nil {
		return nil, err
	}
	return queues, nil
}

func (r *lenderQueueRepositoryImpl) UpdateQueue(
	_ context.Context,
	name string, updateFn func(q *domain.LenderQueue) (*domain.LenderQueue, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	queue, err := r.getQueue(name)
	if err != nil {
		return err
	}

	updated, err := updateFn(queue)
	if err != nil {
		return err
	}

	return r.store.Update(name, *updated)
}

func (r *lenderQueueRepositoryImpl) getQueue(
	name string,
) (*domain.LenderQueue, error) {
	var queue domain.LenderQueue
	if err := r.store.Get(name, &queue); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrQueueNotFound
		}
		return nil, err
	}
	return &queue, nil
}
