package ports

import "github.com/consol-protocol/consold/internal/core/domain"

// RepoManager gives access to all the domain repositories backed by a
// single store.
type RepoManager interface {
	// LenderQueueRepository returns the queue repository.
	LenderQueueRepository() domain.LenderQueueRepository
	// Close gracefully closes the connection with the store.
	Close()
}
