package consol_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/consol-protocol/consold/internal/infrastructure/consol"
)

func TestVaultConversionsFollowRate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vault := consol.NewVault("consol-native")

	shares, err := vault.ConvertToShares(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), shares)

	require.NoError(t, vault.Rebase(decimal.NewFromFloat(1.25)))

	shares, err = vault.ConvertToShares(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(80), shares)
	amount, err := vault.ConvertToAssets(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(125), amount)

	require.EqualError(
		t, vault.Rebase(decimal.Zero), consol.ErrInvalidRate.Error(),
	)
}

func TestVaultTransferShares(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vault := consol.NewVault("consol-native")
	vault.MintShares("alice", 100)

	require.NoError(t, vault.TransferShares(ctx, "alice", "bob", 60))
	require.Equal(t, uint64(40), vault.ShareBalance("alice"))
	require.Equal(t, uint64(60), vault.ShareBalance("bob"))

	err := vault.TransferShares(ctx, "alice", "bob", 41)
	require.EqualError(t, err, consol.ErrInsufficientShares.Error())

	// A zero transfer never fails, even from an unknown account.
	require.NoError(t, vault.TransferShares(ctx, "nobody", "bob", 0))
}

func TestVaultRedeemShares(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vault := consol.NewVault("consol-native")
	vault.MintShares("alice", 100)
	require.NoError(t, vault.Rebase(decimal.NewFromFloat(1.5)))

	amount, err := vault.RedeemShares(ctx, "alice", "bob", 100)
	require.NoError(t, err)
	require.Equal(t, uint64(150), amount)
	require.Zero(t, vault.ShareBalance("alice"))
	require.Equal(t, uint64(150), vault.AssetBalance("bob"))

	_, err = vault.RedeemShares(ctx, "alice", "bob", 1)
	require.EqualError(t, err, consol.ErrInsufficientShares.Error())

	amount, err = vault.RedeemShares(ctx, "alice", "bob", 0)
	require.NoError(t, err)
	require.Zero(t, amount)
}

func TestBankTransfer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	bank := consol.NewBank()
	bank.Deposit("alice", 100)

	require.NoError(t, bank.Transfer(ctx, "alice", "bob", 30))
	balance, err := bank.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(70), balance)
	balance, err = bank.Balance(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(30), balance)

	err = bank.Transfer(ctx, "alice", "bob", 71)
	require.EqualError(t, err, consol.ErrInsufficientNativeBalance.Error())
	require.NoError(t, bank.Transfer(ctx, "nobody", "bob", 0))
}
