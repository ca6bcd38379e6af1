package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consol-protocol/consold/internal/core/domain"
)

func TestLedgerAppend(t *testing.T) {
	t.Parallel()

	ledger := &domain.Ledger{}
	require.Zero(t, ledger.Length())
	require.Zero(t, ledger.QueueLength())

	for i := 0; i < 5; i++ {
		index := ledger.Append(domain.WithdrawalRequest{
			Account: "lender", Shares: 10, Amount: 10,
		})
		require.Equal(t, uint64(i), index)
	}
	require.Equal(t, uint64(5), ledger.Length())
	require.Equal(t, uint64(5), ledger.QueueLength())
}

func TestLedgerGet(t *testing.T) {
	t.Parallel()

	ledger := &domain.Ledger{}
	ledger.Append(domain.WithdrawalRequest{Account: "lender", Shares: 7, Amount: 9})

	row, err := ledger.Get(0)
	require.NoError(t, err)
	require.Equal(t, "lender", row.Account)
	require.Equal(t, uint64(7), row.Shares)
	require.Equal(t, uint64(9), row.Amount)

	row, err = ledger.Get(1)
	require.EqualError(t, err, domain.ErrLedgerOutOfBounds.Error())
	require.Nil(t, row)
}

func TestLedgerTombstone(t *testing.T) {
	t.Parallel()

	ledger := &domain.Ledger{}
	ledger.Append(domain.WithdrawalRequest{
		Account: "lender", Shares: 7, Amount: 9, Timestamp: 42, GasFee: 1,
	})

	err := ledger.Tombstone(0)
	require.NoError(t, err)

	// The slot keeps its index, only amount and shares are zeroed.
	row, err := ledger.Get(0)
	require.NoError(t, err)
	require.True(t, row.IsInert())
	require.Equal(t, "lender", row.Account)
	require.Equal(t, int64(42), row.Timestamp)
	require.Equal(t, uint64(1), ledger.Length())
	require.Equal(t, uint64(1), ledger.QueueLength())

	err = ledger.Tombstone(1)
	require.EqualError(t, err, domain.ErrLedgerOutOfBounds.Error())
}

func TestLedgerAdvanceHead(t *testing.T) {
	t.Parallel()

	ledger := &domain.Ledger{}
	for i := 0; i < 3; i++ {
		ledger.Append(domain.WithdrawalRequest{Shares: 1, Amount: 1})
	}

	require.NoError(t, ledger.AdvanceHead(2))
	require.Equal(t, uint64(2), ledger.Head)
	require.Equal(t, uint64(1), ledger.QueueLength())

	err := ledger.AdvanceHead(2)
	require.EqualError(t, err, domain.ErrLedgerHeadOverflow.Error())
	require.Equal(t, uint64(2), ledger.Head)

	require.NoError(t, ledger.AdvanceHead(1))
	require.Zero(t, ledger.QueueLength())
}
