package ports

import "context"

// Vault is the rebasing multi-asset accounting vault (the consol) this
// engine redeems against. Shares are the vault's internal accounting
// unit whose asset value fluctuates as the vault accrues yield or
// absorbs loss; all queued claims are held as shares, never as fixed
// asset amounts.
type Vault interface {
	// AssetID returns the identifier of the vault's target asset.
	AssetID() string
	// ConvertToShares returns the amount of shares currently worth the
	// given asset amount. Pure function of the current exchange rate.
	ConvertToShares(ctx context.Context, amount uint64) (uint64, error)
	// ConvertToAssets returns the asset amount the given shares are
	// currently worth.
	ConvertToAssets(ctx context.Context, shares uint64) (uint64, error)
	// TransferShares moves shares between accounts.
	TransferShares(ctx context.Context, from, to string, shares uint64) error
	// RedeemShares burns shares held by owner and credits the resulting
	// amount of the target asset, at the current exchange rate, to
	// recipient. It returns the amount paid out.
	RedeemShares(
		ctx context.Context, owner, recipient string, shares uint64,
	) (uint64, error)
}
