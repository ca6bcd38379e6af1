package dbbadger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consol-protocol/consold/internal/core/domain"
	"github.com/consol-protocol/consold/internal/core/ports"
	dbbadger "github.com/consol-protocol/consold/internal/infrastructure/storage/db/badger"
)

func TestQueueRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repoManager := newTestRepoManager(t)
	repo := repoManager.LenderQueueRepository()

	queue, err := domain.NewLenderQueue(
		"main", "consol-native", domain.StrategyTypeDirectAsset, 10, 5,
	)
	require.NoError(t, err)

	require.NoError(t, repo.AddQueue(ctx, queue))
	err = repo.AddQueue(ctx, queue)
	require.EqualError(t, err, domain.ErrQueueAlreadyExists.Error())

	require.NoError(t, repo.UpdateQueue(
		ctx, "main", func(q *domain.LenderQueue) (*domain.LenderQueue, error) {
			q.PushRequest("lender", 100, 100, 10, 42)
			return q, nil
		},
	))

	got, err := repo.GetQueueByName(ctx, "main")
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.WithdrawalQueueLength())
	row, err := got.Ledger.Get(0)
	require.NoError(t, err)
	require.Equal(t, "lender", row.Account)
	require.Equal(t, uint64(10), row.GasFee)

	_, err = repo.GetQueueByName(ctx, "unknown")
	require.EqualError(t, err, domain.ErrQueueNotFound.Error())
}

func TestGetAllQueuesSortedByName(t *testing.T) {
	ctx := context.Background()
	repoManager := newTestRepoManager(t)
	repo := repoManager.LenderQueueRepository()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		queue, err := domain.NewLenderQueue(
			name, "consol-native", domain.StrategyTypeDirectAsset, 0, 0,
		)
		require.NoError(t, err)
		require.NoError(t, repo.AddQueue(ctx, queue))
	}

	queues, err := repo.GetAllQueues(ctx)
	require.NoError(t, err)
	require.Len(t, queues, 3)
	require.Equal(t, "alpha", queues[0].Name)
	require.Equal(t, "bravo", queues[1].Name)
	require.Equal(t, "charlie", queues[2].Name)
}

func TestFailingUpdateQueuePersistsNothing(t *testing.T) {
	ctx := context.Background()
	repoManager := newTestRepoManager(t)
	repo := repoManager.LenderQueueRepository()

	queue, err := domain.NewLenderQueue(
		"main", "consol-native", domain.StrategyTypeDirectAsset, 0, 0,
	)
	require.NoError(t, err)
	require.NoError(t, repo.AddQueue(ctx, queue))

	err = repo.UpdateQueue(
		ctx, "main", func(q *domain.LenderQueue) (*domain.LenderQueue, error) {
			q.PushRequest("lender", 100, 100, 0, 42)
			return nil, domain.ErrWithdrawalAlreadyInert
		},
	)
	require.EqualError(t, err, domain.ErrWithdrawalAlreadyInert.Error())

	got, err := repo.GetQueueByName(ctx, "main")
	require.NoError(t, err)
	require.Zero(t, got.WithdrawalQueueLength())
}

func newTestRepoManager(t *testing.T) ports.RepoManager {
	t.Helper()
	repoManager, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}
