package application_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/consol-protocol/consold/internal/core/application"
	"github.com/consol-protocol/consold/internal/core/domain"
	"github.com/consol-protocol/consold/internal/core/ports"
	"github.com/consol-protocol/consold/internal/infrastructure/accesscontrol"
	"github.com/consol-protocol/consold/internal/infrastructure/consol"
	"github.com/consol-protocol/consold/internal/infrastructure/pool"
	"github.com/consol-protocol/consold/internal/infrastructure/storage/db/inmemory"
)

const (
	queueName    = "main"
	targetAsset  = "consol-native"
	receiptAsset = "foreclosure-receipt"
	admin        = "admin"
	treasury     = "treasury"
	lender       = "lender"
	processor    = "processor"
)

type testEngine struct {
	vault         *consol.Vault
	bank          *consol.Bank
	pool          *pool.Service
	withdrawalSvc application.WithdrawalService
	processorSvc  application.ProcessorService
}

func newTestEngine(
	t *testing.T, strategyType int, gasFee, minAmount uint64,
	liabilities []ports.AssetAmount,
) *testEngine {
	t.Helper()
	ctx := context.Background()

	vault := consol.NewVault(targetAsset)
	bank := consol.NewBank()
	poolSvc := pool.NewService(receiptAsset, liabilities)
	accessControl := accesscontrol.NewService(map[string][]string{
		ports.RoleQueueAdmin: {admin},
		ports.RoleTreasury:   {treasury},
	})

	withdrawalSvc := application.NewWithdrawalService(
		inmemory.NewRepoManager(), vault, poolSvc, bank, accessControl, nil,
	)
	require.NoError(t, withdrawalSvc.AddQueue(
		ctx, admin, queueName, strategyType, gasFee, minAmount,
	))

	return &testEngine{
		vault:         vault,
		bank:          bank,
		pool:          poolSvc,
		withdrawalSvc: withdrawalSvc,
		processorSvc:  application.NewProcessorService(withdrawalSvc),
	}
}

func TestRequestAndProcessSingleWithdrawal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// minimum = 0, fee = 0, single request of 100 units processed at once.
	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 0, 0, nil)
	engine.vault.MintShares(lender, 100)

	info, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 0,
	)
	require.NoError(t, err)
	require.Zero(t, info.Index)
	require.Equal(t, uint64(100), info.Shares)
	require.Zero(t, engine.vault.ShareBalance(lender))

	length, err := engine.withdrawalSvc.WithdrawalQueueLength(ctx, queueName)
	require.NoError(t, err)
	require.Equal(t, uint64(1), length)

	require.NoError(t, engine.processorSvc.Process(
		ctx, queueName, 1, processor,
	))

	require.Equal(t, uint64(100), engine.vault.AssetBalance(lender))
	length, err = engine.withdrawalSvc.WithdrawalQueueLength(ctx, queueName)
	require.NoError(t, err)
	require.Zero(t, length)
}

func TestFailingRequestWithdrawal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("below_minimum", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 0, 50, nil)
		engine.vault.MintShares(lender, 100)

		info, err := engine.withdrawalSvc.RequestWithdrawal(
			ctx, queueName, lender, 49, 0,
		)
		require.Nil(t, info)
		require.EqualError(t, err, domain.ErrQueueInsufficientAmount.Error())
		// No shares moved.
		require.Equal(t, uint64(100), engine.vault.ShareBalance(lender))
	})

	t.Run("insufficient_gas_fee", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 100, 0, nil)
		engine.vault.MintShares(lender, 100)
		engine.bank.Deposit(lender, 99)

		info, err := engine.withdrawalSvc.RequestWithdrawal(
			ctx, queueName, lender, 100, 99,
		)
		require.Nil(t, info)
		require.Equal(
			t, domain.InsufficientGasFeeError{Required: 100, Paid: 99}, err,
		)
		require.Equal(t, uint64(100), engine.vault.ShareBalance(lender))
	})

	t.Run("unknown_queue", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 0, 0, nil)

		info, err := engine.withdrawalSvc.RequestWithdrawal(
			ctx, "unknown", lender, 100, 0,
		)
		require.Nil(t, info)
		require.EqualError(t, err, domain.ErrQueueNotFound.Error())
	})
}

func TestFeeOverpaymentIsNotDrawn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 100, 0, nil)
	engine.vault.MintShares(lender, 100)
	engine.bank.Deposit(lender, 150)

	// Declaring a payment above the current fee is accepted, only the
	// exact fee moves into custody.
	_, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 150,
	)
	require.NoError(t, err)

	balance, err := engine.bank.Balance(ctx, lender)
	require.NoError(t, err)
	require.Equal(t, uint64(50), balance)
}

// feeChangingVault runs a hook the first time shares are converted,
// simulating an admin reconfiguring the queue between a request's
// validation and its ledger append.
type feeChangingVault struct {
	*consol.Vault
	hook func()
}

func (v *feeChangingVault) ConvertToShares(
	ctx context.Context, amount uint64,
) (uint64, error) {
	if v.hook != nil {
		v.hook()
		v.hook = nil
	}
	return v.Vault.ConvertToShares(ctx, amount)
}

func TestGasFeeSnapshotMatchesFeeDrawn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	vault := &feeChangingVault{Vault: consol.NewVault(targetAsset)}
	bank := consol.NewBank()
	accessControl := accesscontrol.NewService(map[string][]string{
		ports.RoleQueueAdmin: {admin},
	})
	withdrawalSvc := application.NewWithdrawalService(
		inmemory.NewRepoManager(), vault, nil, bank, accessControl, nil,
	)
	processorSvc := application.NewProcessorService(withdrawalSvc)

	require.NoError(t, withdrawalSvc.AddQueue(
		ctx, admin, queueName, domain.StrategyTypeDirectAsset, 10, 0,
	))
	vault.MintShares(lender, 100)
	bank.Deposit(lender, 50)
	vault.hook = func() {
		require.NoError(t, withdrawalSvc.SetWithdrawalGasFee(
			ctx, queueName, admin, 50,
		))
	}

	// The fee raise lands mid-request: the row must snapshot the 10 that
	// was actually drawn, not the 50 now configured.
	info, err := withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 10,
	)
	require.NoError(t, err)
	require.Equal(t, uint64(10), info.GasFee)
	balance, err := bank.Balance(ctx, lender)
	require.NoError(t, err)
	require.Equal(t, uint64(40), balance)

	// Settlement pays the processor exactly what custody received.
	require.NoError(t, processorSvc.Process(ctx, queueName, 1, processor))
	balance, err = bank.Balance(ctx, processor)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance)
}

func TestFIFOProcessingWithInterleavedCancellation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 10, 0, nil)
	accounts := []string{"lender-a", "lender-b", "lender-c"}
	for _, account := range accounts {
		engine.vault.MintShares(account, 100)
		engine.bank.Deposit(account, 10)
		_, err := engine.withdrawalSvc.RequestWithdrawal(
			ctx, queueName, account, 100, 10,
		)
		require.NoError(t, err)
	}

	// Cancelling the middle row must not shift the others' indices nor
	// break the batch settling all three slots.
	require.NoError(t, engine.withdrawalSvc.CancelWithdrawal(
		ctx, queueName, "lender-b", 1,
	))
	require.NoError(t, engine.processorSvc.Process(
		ctx, queueName, 3, processor,
	))

	require.Equal(t, uint64(100), engine.vault.AssetBalance("lender-a"))
	require.Zero(t, engine.vault.AssetBalance("lender-b"))
	require.Equal(t, uint64(100), engine.vault.AssetBalance("lender-c"))
	require.Equal(t, uint64(100), engine.vault.ShareBalance("lender-b"))

	// Fee conservation: the processor earns exactly the fees of the rows
	// actually settled, the cancelled one was refunded to its owner.
	processorBalance, err := engine.bank.Balance(ctx, processor)
	require.NoError(t, err)
	require.Equal(t, uint64(20), processorBalance)
	refunded, err := engine.bank.Balance(ctx, "lender-b")
	require.NoError(t, err)
	require.Equal(t, uint64(10), refunded)

	length, err := engine.withdrawalSvc.WithdrawalQueueLength(ctx, queueName)
	require.NoError(t, err)
	require.Zero(t, length)
}

func TestProcessingCapacityIsAtomic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 10, 0, nil)
	engine.vault.MintShares(lender, 100)
	engine.bank.Deposit(lender, 10)
	_, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 10,
	)
	require.NoError(t, err)

	err = engine.processorSvc.Process(ctx, queueName, 2, processor)
	require.Equal(
		t,
		domain.InsufficientWithdrawalCapacityError{Requested: 2, Available: 1},
		err,
	)

	// Nothing was settled, no fee was paid.
	require.Zero(t, engine.vault.AssetBalance(lender))
	processorBalance, err := engine.bank.Balance(ctx, processor)
	require.NoError(t, err)
	require.Zero(t, processorBalance)

	length, err := engine.withdrawalSvc.WithdrawalQueueLength(ctx, queueName)
	require.NoError(t, err)
	require.Equal(t, uint64(1), length)
	info, err := engine.withdrawalSvc.WithdrawalQueue(ctx, queueName, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), info.Shares)
}

func TestCancellationRefundsSharesAtCurrentValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 10, 0, nil)
	engine.vault.MintShares(lender, 100)
	engine.bank.Deposit(lender, 10)
	_, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 10,
	)
	require.NoError(t, err)

	// The vault rebases between request and cancellation: the shares
	// themselves come back, not the originally requested amount.
	require.NoError(t, engine.vault.Rebase(decimal.NewFromFloat(1.5)))
	require.NoError(t, engine.withdrawalSvc.CancelWithdrawal(
		ctx, queueName, lender, 0,
	))

	require.Equal(t, uint64(100), engine.vault.ShareBalance(lender))
	value, err := engine.vault.ConvertToAssets(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(150), value)
	balance, err := engine.bank.Balance(ctx, lender)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance)

	// A second cancel on the tombstoned index never double-pays.
	err = engine.withdrawalSvc.CancelWithdrawal(ctx, queueName, lender, 0)
	require.EqualError(t, err, domain.ErrWithdrawalAlreadyInert.Error())
	require.Equal(t, uint64(100), engine.vault.ShareBalance(lender))
}

func TestSettlementPaysCurrentShareValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 0, 0, nil)
	engine.vault.MintShares(lender, 100)
	_, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 0,
	)
	require.NoError(t, err)

	// The locked share count never changes after the fact...
	require.NoError(t, engine.vault.Rebase(decimal.NewFromFloat(1.2)))
	info, err := engine.withdrawalSvc.WithdrawalQueue(ctx, queueName, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), info.Shares)
	require.Equal(t, uint64(100), info.Amount)

	// ...while settlement pays those shares at the settlement-time rate.
	require.NoError(t, engine.processorSvc.Process(
		ctx, queueName, 1, processor,
	))
	require.Equal(t, uint64(120), engine.vault.AssetBalance(lender))
}

func TestPoolRedemptionSettlement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	liabilities := []ports.AssetAmount{
		{Asset: "asset-a", Amount: 600},
		{Asset: "asset-b", Amount: 400},
	}
	engine := newTestEngine(
		t, domain.StrategyTypePoolRedemption, 0, 0, liabilities,
	)
	engine.vault.MintShares(lender, 100)

	_, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 0,
	)
	require.NoError(t, err)

	asset, err := engine.withdrawalSvc.Asset(ctx, queueName)
	require.NoError(t, err)
	require.Equal(t, receiptAsset, asset)

	require.NoError(t, engine.processorSvc.Process(
		ctx, queueName, 1, processor,
	))

	// 100 receipts burnt against 1000 issued: 60 of asset-a, 40 of
	// asset-b, in liability order.
	paid := engine.pool.PaidOut(lender)
	require.Equal(t, []ports.AssetAmount{
		{Asset: "asset-a", Amount: 60},
		{Asset: "asset-b", Amount: 40},
	}, paid)
	supply, err := engine.pool.TotalSupply(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(900), supply)
}

func TestPoolRedemptionFailureAbortsBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	liabilities := []ports.AssetAmount{{Asset: "asset-a", Amount: 50}}
	engine := newTestEngine(
		t, domain.StrategyTypePoolRedemption, 0, 0, liabilities,
	)
	engine.vault.MintShares(lender, 100)

	_, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 0,
	)
	require.NoError(t, err)

	err = engine.processorSvc.Process(ctx, queueName, 1, processor)
	require.Equal(
		t,
		domain.RedemptionAmountGreaterThanForeclosedLiabilitiesError{
			Requested: 100, Available: 50,
		},
		err,
	)

	// The batch aborted atomically: the request is still unsettled and
	// the custody's shares are untouched, so both recourses stay open.
	length, err := engine.withdrawalSvc.WithdrawalQueueLength(ctx, queueName)
	require.NoError(t, err)
	require.Equal(t, uint64(1), length)
	require.Empty(t, engine.pool.PaidOut(lender))

	// Resubmitting hits the same pool bound, never a drained custody.
	err = engine.processorSvc.Process(ctx, queueName, 1, processor)
	require.Equal(
		t,
		domain.RedemptionAmountGreaterThanForeclosedLiabilitiesError{
			Requested: 100, Available: 50,
		},
		err,
	)

	// And the claim can still be cancelled with a full share refund.
	require.NoError(t, engine.withdrawalSvc.CancelWithdrawal(
		ctx, queueName, lender, 0,
	))
	require.Equal(t, uint64(100), engine.vault.ShareBalance(lender))
}

func TestAdminOperations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 10, 5, nil)

	t.Run("set_withdrawal_gas_fee", func(t *testing.T) {
		require.NoError(t, engine.withdrawalSvc.SetWithdrawalGasFee(
			ctx, queueName, admin, 30,
		))
		fee, err := engine.withdrawalSvc.WithdrawalGasFee(ctx, queueName)
		require.NoError(t, err)
		require.Equal(t, uint64(30), fee)
	})

	t.Run("set_minimum_withdrawal_amount", func(t *testing.T) {
		require.NoError(t, engine.withdrawalSvc.SetMinimumWithdrawalAmount(
			ctx, queueName, admin, 70,
		))
		minAmount, err := engine.withdrawalSvc.MinimumWithdrawalAmount(
			ctx, queueName,
		)
		require.NoError(t, err)
		require.Equal(t, uint64(70), minAmount)
	})

	t.Run("unauthorized", func(t *testing.T) {
		err := engine.withdrawalSvc.SetWithdrawalGasFee(
			ctx, queueName, lender, 1,
		)
		require.Equal(
			t,
			domain.UnauthorizedError{
				Caller: lender, RequiredRole: ports.RoleQueueAdmin,
			},
			err,
		)
	})
}

func TestWithdrawNativeGas(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t, domain.StrategyTypeDirectAsset, 100, 0, nil)
	engine.vault.MintShares(lender, 100)
	engine.bank.Deposit(lender, 100)
	_, err := engine.withdrawalSvc.RequestWithdrawal(
		ctx, queueName, lender, 100, 100,
	)
	require.NoError(t, err)

	// The whole custody balance is bonded to the open request, so not
	// even a single unit is sweepable.
	err = engine.withdrawalSvc.WithdrawNativeGas(
		ctx, queueName, treasury, treasury, 1,
	)
	require.Equal(t, domain.FailedToWithdrawNativeGasError{Amount: 1}, err)

	// Only the surplus above the bonded fees can go.
	engine.bank.Deposit("consold/"+queueName, 60)
	require.NoError(t, engine.withdrawalSvc.WithdrawNativeGas(
		ctx, queueName, treasury, treasury, 60,
	))
	balance, err := engine.bank.Balance(ctx, treasury)
	require.NoError(t, err)
	require.Equal(t, uint64(60), balance)
	err = engine.withdrawalSvc.WithdrawNativeGas(
		ctx, queueName, treasury, treasury, 1,
	)
	require.Equal(t, domain.FailedToWithdrawNativeGasError{Amount: 1}, err)

	// The bonded fee survived the sweep and is still refundable in full.
	require.NoError(t, engine.withdrawalSvc.CancelWithdrawal(
		ctx, queueName, lender, 0,
	))
	balance, err = engine.bank.Balance(ctx, lender)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)

	err = engine.withdrawalSvc.WithdrawNativeGas(
		ctx, queueName, lender, lender, 1,
	)
	require.Equal(
		t,
		domain.UnauthorizedError{
			Caller: lender, RequiredRole: ports.RoleTreasury,
		},
		err,
	)
}
