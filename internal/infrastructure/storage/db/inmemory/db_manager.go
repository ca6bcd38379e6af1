package inmemory

import (
	"github.com/consol-protocol/consold/internal/core/domain"
	"github.com/consol-protocol/consold/internal/core/ports"
)

type repoManager struct {
	queueRepository domain.LenderQueueRepository
}

// NewRepoManager returns a volatile implementation of ports.RepoManager
// keeping all queues in memory.
func NewRepoManager() ports.RepoManager {
	return &repoManager{
		queueRepository: NewLenderQueueRepositoryImpl(),
	}
}

func (r *repoManager) LenderQueueRepository() domain.LenderQueueRepository {
	return r.queueRepository
}

func (r *repoManager) Close() {}
