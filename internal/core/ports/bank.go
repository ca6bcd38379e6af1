package ports

import "context"

// Bank moves the native currency used for bonded fees between accounts.
type Bank interface {
	// Transfer moves amount of native currency from one account to the
	// other, failing without any movement if from's balance is short.
	Transfer(ctx context.Context, from, to string, amount uint64) error
	// Balance returns the native balance of an account.
	Balance(ctx context.Context, account string) (uint64, error)
}
