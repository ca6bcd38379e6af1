package ports

import "context"

// AssetAmount pairs an asset identifier with an amount of it.
type AssetAmount struct {
	Asset  string
	Amount uint64
}

// RedemptionPool is the secondary multi-asset pool backing the
// pool-redemption settlement strategy. Its receipt token is the target
// asset of the queues settled against it.
type RedemptionPool interface {
	// ReceiptAsset returns the identifier of the pool's receipt token.
	ReceiptAsset() string
	// TotalSupply returns the outstanding amount of receipt tokens, the
	// upper bound any burn must stay within.
	TotalSupply(ctx context.Context) (uint64, error)
	// Burn redeems receiptAmount of receipt tokens pro-rata against the
	// pool's liabilities and transfers every resulting asset amount to
	// receiver. The returned pairs are ordered and floor-rounded, each
	// computed as receiptAmount * balance[asset] / totalSupplyBeforeBurn.
	Burn(
		ctx context.Context, receiver string, receiptAmount uint64,
	) ([]AssetAmount, error)
}
