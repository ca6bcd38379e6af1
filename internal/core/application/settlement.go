package application

import (
	"context"

	"github.com/consol-protocol/consold/internal/core/domain"
	"github.com/consol-protocol/consold/internal/core/ports"
)

// SettlementStrategy is the fulfillment policy of a lender queue: it
// converts a row's locked vault shares into one or more asset payouts
// transferred to the recipient. Both variants tolerate shares == 0 as a
// no-op so that a tombstoned row reached by a batch does not abort it.
//
// Preflight must be called with a batch's total shares before the first
// Settle. A batch rejected by Preflight has moved nothing: the custody's
// shares are untouched and every claim stays cancellable, whereas a
// Settle failure may leave external transfers behind that the ledger
// rollback cannot undo.
type SettlementStrategy interface {
	Preflight(ctx context.Context, shares uint64) error
	Settle(
		ctx context.Context, shares uint64, recipient string,
	) ([]ports.AssetAmount, error)
}

type directAssetStrategy struct {
	vault   ports.Vault
	custody string
}

// NewDirectAssetStrategy returns the strategy redeeming vault shares held
// by the queue's custody account straight into the vault's target asset,
// paid to the recipient in one hop.
func NewDirectAssetStrategy(
	vault ports.Vault, custody string,
) SettlementStrategy {
	return &directAssetStrategy{vault, custody}
}

// Preflight is a no-op: redeeming custody shares into the target asset
// has no external bound to check beyond the custody balance itself.
func (s *directAssetStrategy) Preflight(context.Context, uint64) error {
	return nil
}

func (s *directAssetStrategy) Settle(
	ctx context.Context, shares uint64, recipient string,
) ([]ports.AssetAmount, error) {
	if shares == 0 {
		return nil, nil
	}

	amount, err := s.vault.RedeemShares(ctx, s.custody, recipient, shares)
	if err != nil {
		return nil, err
	}

	return []ports.AssetAmount{
		{Asset: s.vault.AssetID(), Amount: amount},
	}, nil
}

type poolRedemptionStrategy struct {
	vault   ports.Vault
	pool    ports.RedemptionPool
	custody string
}

// NewPoolRedemptionStrategy returns the strategy redeeming vault shares
// into the receipt token of a secondary multi-asset pool, then
// immediately redeeming the full received receipt amount against that
// pool. The pool pays the recipient pro-rata in its underlying
// collateral assets.
func NewPoolRedemptionStrategy(
	vault ports.Vault, pool ports.RedemptionPool, custody string,
) SettlementStrategy {
	return &poolRedemptionStrategy{vault, pool, custody}
}

// Preflight checks the receipts the batch would burn against the pool's
// outstanding supply before any share is redeemed. The conversion of the
// summed shares is an upper bound on the per-row sum (floors only lose
// value when split), so a batch passing here cannot exceed the supply.
func (s *poolRedemptionStrategy) Preflight(
	ctx context.Context, shares uint64,
) error {
	receiptTotal, err := s.vault.ConvertToAssets(ctx, shares)
	if err != nil {
		return err
	}
	supply, err := s.pool.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if receiptTotal > supply {
		return domain.RedemptionAmountGreaterThanForeclosedLiabilitiesError{
			Requested: receiptTotal,
			Available: supply,
		}
	}
	return nil
}

func (s *poolRedemptionStrategy) Settle(
	ctx context.Context, shares uint64, recipient string,
) ([]ports.AssetAmount, error) {
	if shares == 0 {
		return nil, nil
	}

	receiptAmount, err := s.vault.RedeemShares(
		ctx, s.custody, s.custody, shares,
	)
	if err != nil {
		return nil, err
	}
	if receiptAmount == 0 {
		return nil, nil
	}

	return s.pool.Burn(ctx, recipient, receiptAmount)
}
