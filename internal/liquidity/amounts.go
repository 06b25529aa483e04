package liquidity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// QuantityInRange returns the raw amount of the non-base token that liquidity
// provides between startSqrt and endSqrt. With token0 as base the result is
// token1, otherwise token0. A negative liquidity yields a negative amount.
func QuantityInRange(liquidity, startSqrt, endSqrt *big.Int, isToken0Base bool) *big.Int {
	if liquidity == nil || startSqrt == nil || endSqrt == nil {
		return new(big.Int)
	}
	delta := new(big.Int).Sub(endSqrt, startSqrt)
	delta.Abs(delta)
	if delta.Sign() == 0 || liquidity.Sign() == 0 {
		return new(big.Int)
	}

	num := new(big.Int).Mul(liquidity, delta)
	if isToken0Base {
		return num.Quo(num, Q96)
	}
	den := new(big.Int).Mul(startSqrt, endSqrt)
	if den.Sign() == 0 {
		return new(big.Int)
	}
	num.Mul(num, Q96)
	return num.Quo(num, den)
}

// ScaleAmount converts a raw token amount to whole units.
func ScaleAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}
