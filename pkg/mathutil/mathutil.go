package mathutil

import (
	"math/big"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.DivisionPrecision = 18
}

// ProRataFloor returns part * balance / total, floor-rounded, computed
// with arbitrary precision so the product cannot overflow uint64.
func ProRataFloor(part, balance, total uint64) uint64 {
	if total == 0 {
		return 0
	}
	p := new(big.Int).Mul(
		new(big.Int).SetUint64(part), new(big.Int).SetUint64(balance),
	)
	return new(big.Int).Div(p, new(big.Int).SetUint64(total)).Uint64()
}

// MulRateFloor returns amount * rate, floor-rounded.
func MulRateFloor(amount uint64, rate decimal.Decimal) uint64 {
	a := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	return a.Mul(rate).Floor().BigInt().Uint64()
}

// DivRateFloor returns amount / rate, floor-rounded. Rate must be
// strictly positive.
func DivRateFloor(amount uint64, rate decimal.Decimal) uint64 {
	a := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	return a.Div(rate).Floor().BigInt().Uint64()
}
