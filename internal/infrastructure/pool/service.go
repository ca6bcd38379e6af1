package pool

import (
	"context"
	"sync"

	"github.com/consol-protocol/consold/internal/core/domain"
	"github.com/consol-protocol/consold/internal/core/ports"
	"github.com/consol-protocol/consold/pkg/mathutil"
)

// Service is an in-process implementation of the redemption pool port: a
// multi-asset pool whose receipt tokens are redeemed pro-rata against an
// ordered list of collateral liabilities. The total receipt supply
// equals the sum of liabilities at seeding time and shrinks by exactly
// the burnt amount on every redemption.
type Service struct {
	lock sync.Mutex

	receiptAsset string
	liabilities  []ports.AssetAmount
	totalSupply  uint64
	paidOut      map[string][]ports.AssetAmount
}

// NewService returns a pool issuing the given receipt asset against the
// given ordered collateral liabilities.
func NewService(
	receiptAsset string, liabilities []ports.AssetAmount,
) *Service {
	var total uint64
	owned := make([]ports.AssetAmount, len(liabilities))
	for i, l := range liabilities {
		owned[i] = l
		total += l.Amount
	}

	return &Service{
		receiptAsset: receiptAsset,
		liabilities:  owned,
		totalSupply:  total,
		paidOut:      make(map[string][]ports.AssetAmount),
	}
}

func (s *Service) ReceiptAsset() string {
	return s.receiptAsset
}

// Burn redeems receiptAmount pro-rata against the pool's liabilities.
// Every payout is floor-rounded as
// receiptAmount * balance[asset] / totalSupplyBeforeBurn, the pairs are
// returned in liability order and credited to receiver.
func (s *Service) Burn(
	_ context.Context, receiver string, receiptAmount uint64,
) ([]ports.AssetAmount, error) {
	if receiptAmount == 0 {
		return nil, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if receiptAmount > s.totalSupply {
		return nil, domain.RedemptionAmountGreaterThanForeclosedLiabilitiesError{
			Requested: receiptAmount,
			Available: s.totalSupply,
		}
	}

	payouts := make([]ports.AssetAmount, 0, len(s.liabilities))
	for i := range s.liabilities {
		paid := mathutil.ProRataFloor(
			receiptAmount, s.liabilities[i].Amount, s.totalSupply,
		)
		s.liabilities[i].Amount -= paid
		payouts = append(payouts, ports.AssetAmount{
			Asset:  s.liabilities[i].Asset,
			Amount: paid,
		})
	}
	s.totalSupply -= receiptAmount
	s.paidOut[receiver] = append(s.paidOut[receiver], payouts...)

	return payouts, nil
}

// TotalSupply returns the outstanding receipt supply.
func (s *Service) TotalSupply(_ context.Context) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.totalSupply, nil
}

// Liabilities returns the pool's current collateral liabilities in
// order.
func (s *Service) Liabilities() []ports.AssetAmount {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]ports.AssetAmount, len(s.liabilities))
	copy(out, s.liabilities)
	return out
}

// PaidOut returns all payouts credited to receiver so far.
func (s *Service) PaidOut(receiver string) []ports.AssetAmount {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]ports.AssetAmount, len(s.paidOut[receiver]))
	copy(out, s.paidOut[receiver])
	return out
}
