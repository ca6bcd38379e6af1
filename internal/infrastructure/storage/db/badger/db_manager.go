package dbbadger

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"

	"github.com/consol-protocol/consold/internal/core/domain"
	"github.com/consol-protocol/consold/internal/core/ports"
)

type repoManager struct {
	queueStore      *badgerhold.Store
	queueRepository domain.LenderQueueRepository
}

// NewRepoManager opens (or creates if not exists) the badger store on
// disk. It expects a base data dir and an optional logger.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	queueDb, err := createDb(filepath.Join(baseDbDir, "queues"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening queues db: %w", err)
	}

	return &repoManager{
		queueStore:      queueDb,
		queueRepository: NewLenderQueueRepositoryImpl(queueDb),
	}, nil
}

func (r *repoManager) LenderQueueRepository() domain.LenderQueueRepository {
	return r.queueRepository
}

func (r *repoManager) Close() {
	if err := r.queueStore.Close(); err != nil {
		log.WithError(err).Warn("error while closing queues db")
	}
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	opts.Compression = options.ZSTD

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
