package liquidity

import (
	"fmt"
	"math"
	"math/big"
)

const floatPrec = 256

// Q96 is 2^96, the fixed-point scale of sqrtPriceX96.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

var q96Float = new(big.Float).SetPrec(floatPrec).SetInt(Q96)

func newFloat() *big.Float {
	return new(big.Float).SetPrec(floatPrec)
}

// PriceFromSqrtX96 returns the human price of token0 in token1 units.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0
	}
	ratio := newFloat().Quo(newFloat().SetInt(sqrtPriceX96), q96Float)
	price := newFloat().Mul(ratio, ratio)

	shift := int(decimals0) - int(decimals1)
	scale := newFloat().SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(absInt(shift))), nil))
	if shift >= 0 {
		price.Mul(price, scale)
	} else {
		price.Quo(price, scale)
	}
	out, _ := price.Float64()
	return out
}

// TargetPrice moves a token1-per-token0 price by rangePercent in the direction
// that sells the base token into the pool.
func TargetPrice(currentPrice float64, isToken0Base bool, rangePercent float64) float64 {
	if isToken0Base {
		return currentPrice * (100 + rangePercent) / 100
	}
	return currentPrice * (100 - rangePercent) / 100
}

// EndSqrtX96 scales start by sqrt((100±r)/100). The ratio is independent of
// token decimals so no decimal conversion is needed.
func EndSqrtX96(start *big.Int, isToken0Base bool, rangePercent float64) *big.Int {
	if rangePercent == 0 {
		return new(big.Int).Set(start)
	}
	factor := 100 - rangePercent
	if isToken0Base {
		factor = 100 + rangePercent
	}
	ratio := newFloat().Quo(newFloat().SetFloat64(factor), newFloat().SetInt64(100))
	end := newFloat().Mul(newFloat().SetInt(start), newFloat().Sqrt(ratio))
	out, _ := end.Int(nil)
	return out
}

// SqrtX96FromPrice converts a raw (undecimaled) token1/token0 price to sqrtPriceX96.
func SqrtX96FromPrice(rawPrice float64) *big.Int {
	if rawPrice <= 0 || math.IsNaN(rawPrice) || math.IsInf(rawPrice, 0) {
		return new(big.Int)
	}
	root := newFloat().Sqrt(newFloat().SetFloat64(rawPrice))
	out, _ := root.Mul(root, q96Float).Int(nil)
	return out
}

// TickFromSqrtX96 returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func TickFromSqrtX96(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, fmt.Errorf("sqrt price %v out of bounds", sqrtPriceX96)
	}
	ratio, _ := newFloat().Quo(newFloat().SetInt(sqrtPriceX96), q96Float).Float64()
	estimate := math.Floor(2 * math.Log(ratio) / math.Log(1.0001))
	tick := int32(math.Max(float64(MinTick), math.Min(float64(MaxTick), estimate)))

	// float64 logs can be off by one near boundaries; settle against exact math.
	for tick > MinTick {
		at, err := SqrtRatioAtTick(tick)
		if err != nil {
			return 0, err
		}
		if at.Cmp(sqrtPriceX96) <= 0 {
			break
		}
		tick--
	}
	for tick < MaxTick {
		next, err := SqrtRatioAtTick(tick + 1)
		if err != nil {
			return 0, err
		}
		if next.Cmp(sqrtPriceX96) > 0 {
			break
		}
		tick++
	}
	return tick, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
