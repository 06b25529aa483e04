package liquidity

import (
	"math/big"

	"liquidityDepth/internal/model"
)

// AccumulateLiquidity returns the active liquidity after the price walks from
// startTick toward stopTick. Moving up, every tick strictly between the two
// adds its liquidityNet; moving down, it is subtracted. Tick order is irrelevant.
func AccumulateLiquidity(ticks []model.TickRecord, startTick int32, initial *big.Int, stopTick int32) *big.Int {
	out := new(big.Int)
	if initial != nil {
		out.Set(initial)
	}
	upward := stopTick > startTick
	for _, t := range ticks {
		if t.LiquidityNet == nil || !crosses(t.TickIdx, startTick, stopTick) {
			continue
		}
		if upward {
			out.Add(out, t.LiquidityNet)
		} else {
			out.Sub(out, t.LiquidityNet)
		}
	}
	return out
}

// CrossedTicks counts the ticks AccumulateLiquidity applies.
func CrossedTicks(ticks []model.TickRecord, startTick, stopTick int32) int {
	n := 0
	for _, t := range ticks {
		if t.LiquidityNet != nil && crosses(t.TickIdx, startTick, stopTick) {
			n++
		}
	}
	return n
}

func crosses(tick, start, stop int32) bool {
	if stop > start {
		return tick > start && tick < stop
	}
	return tick > stop && tick < start
}
