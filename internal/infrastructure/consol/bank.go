package consol

import (
	"context"
	"errors"
	"sync"
)

// ErrInsufficientNativeBalance ...
var ErrInsufficientNativeBalance = errors.New("insufficient native balance")

// Bank is an in-process native-currency ledger implementing the bank
// port, tracking the bonded fees moved between lenders, queue custody
// accounts and batch processors.
type Bank struct {
	lock     sync.Mutex
	balances map[string]uint64
}

// NewBank returns an empty native-currency ledger.
func NewBank() *Bank {
	return &Bank{balances: make(map[string]uint64)}
}

func (b *Bank) Transfer(
	_ context.Context, from, to string, amount uint64,
) error {
	if amount == 0 {
		return nil
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if b.balances[from] < amount {
		return ErrInsufficientNativeBalance
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}

func (b *Bank) Balance(_ context.Context, account string) (uint64, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.balances[account], nil
}

// Deposit credits an account with native currency, seeding standalone
// runs and tests.
func (b *Bank) Deposit(account string, amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.balances[account] += amount
}
