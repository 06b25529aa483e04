package liquidity

import (
	"fmt"
	"math"
	"math/big"

	"liquidityDepth/internal/model"
)

// RangePlan is everything the estimate needs before tick data arrives.
type RangePlan struct {
	IsToken0Base bool
	RangePercent float64
	CurrentPrice float64
	TargetPrice  float64
	StartSqrtX96 *big.Int
	EndSqrtX96   *big.Int
	Window       Window
}

// ValidRangePercent reports whether r is a usable range: finite and in [0, 100).
func ValidRangePercent(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0 && r < 100
}

// CheckSnapshot rejects pool state the math cannot work with.
func CheckSnapshot(p model.PoolSnapshot) error {
	switch {
	case p.SqrtPriceX96 == nil || p.SqrtPriceX96.Sign() <= 0:
		return fmt.Errorf("pool %s: zero sqrt price: %w", p.Address.Hex(), model.ErrInconsistentPool)
	case p.Liquidity == nil || p.Liquidity.Sign() < 0:
		return fmt.Errorf("pool %s: bad liquidity: %w", p.Address.Hex(), model.ErrInconsistentPool)
	case p.TickSpacing <= 0:
		return fmt.Errorf("pool %s: tick spacing %d: %w", p.Address.Hex(), p.TickSpacing, model.ErrInconsistentPool)
	}
	tick, err := TickFromSqrtX96(p.SqrtPriceX96)
	if err != nil {
		return fmt.Errorf("pool %s: %v: %w", p.Address.Hex(), err, model.ErrInconsistentPool)
	}
	if d := int64(tick) - int64(p.Tick); d > 1 || d < -1 {
		return fmt.Errorf("pool %s: tick %d disagrees with sqrt price tick %d: %w", p.Address.Hex(), p.Tick, tick, model.ErrInconsistentPool)
	}
	return nil
}

// PlanRange derives target price, end sqrt price and tick window for a move
// of rangePercent from the snapshot's current price.
func PlanRange(p model.PoolSnapshot, isToken0Base bool, rangePercent float64) (RangePlan, error) {
	if !ValidRangePercent(rangePercent) {
		return RangePlan{}, model.ErrInvalidRange
	}
	if err := CheckSnapshot(p); err != nil {
		return RangePlan{}, err
	}

	start := new(big.Int).Set(p.SqrtPriceX96)
	end := EndSqrtX96(start, isToken0Base, rangePercent)
	if end.Cmp(MinSqrtRatio) < 0 {
		end.Set(MinSqrtRatio)
	}
	if end.Cmp(MaxSqrtRatio) > 0 {
		end.Set(MaxSqrtRatio)
	}

	window, err := TickWindow(start, end, p.TickSpacing)
	if err != nil {
		return RangePlan{}, err
	}

	current := PriceFromSqrtX96(start, p.Token0Decimals, p.Token1Decimals)
	return RangePlan{
		IsToken0Base: isToken0Base,
		RangePercent: rangePercent,
		CurrentPrice: current,
		TargetPrice:  TargetPrice(current, isToken0Base, rangePercent),
		StartSqrtX96: start,
		EndSqrtX96:   end,
		Window:       window,
	}, nil
}
