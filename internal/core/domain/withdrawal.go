package domain

// WithdrawalRequest is one row of a queue's withdrawal ledger: a lender's
// claim to redeem locked vault shares at settlement time.
//
// Shares is the amount of vault shares locked at request time, converted
// at the exchange rate of that moment. Amount is the asset-denominated
// amount originally requested, recorded for events and the minimum-amount
// check only; it is never re-derived from Shares, so the two diverge as
// the vault rebases between request and settlement. GasFee snapshots the
// queue's bonded fee at request time, not the current configuration.
type WithdrawalRequest struct {
	Account   string
	Shares    uint64
	Amount    uint64
	Timestamp int64
	GasFee    uint64
}

// IsInert returns whether the row has been tombstoned by a cancellation
// or already consumed by settlement.
func (r WithdrawalRequest) IsInert() bool {
	return r.Shares == 0 && r.Amount == 0
}
