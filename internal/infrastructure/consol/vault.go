package consol

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/consol-protocol/consold/pkg/mathutil"
)

var (
	// ErrInsufficientShares ...
	ErrInsufficientShares = errors.New("insufficient share balance")
	// ErrInvalidRate ...
	ErrInvalidRate = errors.New("exchange rate must be strictly positive")
)

// Vault is an in-process implementation of the consol vault port, used
// by the daemon in standalone mode and by tests. It tracks share
// balances per account and a single exchange rate, how many units of the
// target asset one share is currently worth. Rebasing the rate changes
// the asset value of every outstanding share without touching balances.
type Vault struct {
	lock sync.Mutex

	asset  string
	rate   decimal.Decimal
	shares map[string]uint64
	assets map[string]uint64
}

// NewVault returns a vault for the given target asset with an exchange
// rate of 1.
func NewVault(asset string) *Vault {
	return &Vault{
		asset:  asset,
		rate:   decimal.NewFromInt(1),
		shares: make(map[string]uint64),
		assets: make(map[string]uint64),
	}
}

func (v *Vault) AssetID() string {
	return v.asset
}

func (v *Vault) ConvertToShares(
	_ context.Context, amount uint64,
) (uint64, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	return mathutil.DivRateFloor(amount, v.rate), nil
}

func (v *Vault) ConvertToAssets(
	_ context.Context, shares uint64,
) (uint64, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	return mathutil.MulRateFloor(shares, v.rate), nil
}

func (v *Vault) TransferShares(
	_ context.Context, from, to string, shares uint64,
) error {
	if shares == 0 {
		return nil
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if v.shares[from] < shares {
		return ErrInsufficientShares
	}
	v.shares[from] -= shares
	v.shares[to] += shares
	return nil
}

func (v *Vault) RedeemShares(
	_ context.Context, owner, recipient string, shares uint64,
) (uint64, error) {
	if shares == 0 {
		return 0, nil
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if v.shares[owner] < shares {
		return 0, ErrInsufficientShares
	}
	amount := mathutil.MulRateFloor(shares, v.rate)
	v.shares[owner] -= shares
	v.assets[recipient] += amount
	return amount, nil
}

// MintShares credits an account with newly issued shares. Deposits are
// handled by the accounting vault proper, this only seeds standalone
// runs and tests.
func (v *Vault) MintShares(account string, shares uint64) {
	v.lock.Lock()
	defer v.lock.Unlock()

	v.shares[account] += shares
}

// Rebase sets the exchange rate, simulating yield accrual (rate > 1) or
// loss absorption (rate < 1) of the underlying pool.
func (v *Vault) Rebase(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidRate
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	v.rate = rate
	return nil
}

// ShareBalance returns the share balance of an account.
func (v *Vault) ShareBalance(account string) uint64 {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.shares[account]
}

// AssetBalance returns the target-asset balance an account has received
// from redemptions.
func (v *Vault) AssetBalance(account string) uint64 {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.assets[account]
}
