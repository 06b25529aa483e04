package liquidity

import (
	"fmt"
	"math/big"

	"liquidityDepth/internal/model"
)

// Window is the spacing-aligned tick span a price move walks through.
type Window struct {
	Start  int32
	End    int32
	Upward bool
}

// Empty reports whether the window spans no ticks.
func (w Window) Empty() bool {
	return w.Start == w.End
}

// Lower returns the smaller bound.
func (w Window) Lower() int32 {
	if w.Upward {
		return w.Start
	}
	return w.End
}

// Upper returns the larger bound.
func (w Window) Upper() int32 {
	if w.Upward {
		return w.End
	}
	return w.Start
}

// TickWindow rounds the ticks of startSqrt and endSqrt outward to spacing so
// that every tick the move could touch is included.
func TickWindow(startSqrt, endSqrt *big.Int, spacing int32) (Window, error) {
	if spacing <= 0 {
		return Window{}, fmt.Errorf("tick spacing %d: %w", spacing, model.ErrInconsistentPool)
	}
	startTick, err := clampedTick(startSqrt)
	if err != nil {
		return Window{}, err
	}
	endTick, err := clampedTick(endSqrt)
	if err != nil {
		return Window{}, err
	}

	cmp := endSqrt.Cmp(startSqrt)
	var w Window
	switch {
	case cmp == 0:
		aligned := floorToSpacing(startTick, spacing)
		w = Window{Start: aligned, End: aligned, Upward: true}
	case cmp > 0:
		w = Window{Start: floorToSpacing(startTick, spacing), End: ceilToSpacing(endTick, spacing), Upward: true}
	default:
		w = Window{Start: ceilToSpacing(startTick, spacing), End: floorToSpacing(endTick, spacing)}
	}

	lo, hi := MinUsableTick(spacing), MaxUsableTick(spacing)
	w.Start = clampTick(w.Start, lo, hi)
	w.End = clampTick(w.End, lo, hi)
	return w, nil
}

func clampedTick(sqrt *big.Int) (int32, error) {
	if sqrt == nil || sqrt.Sign() <= 0 {
		return 0, fmt.Errorf("sqrt price %v: %w", sqrt, model.ErrInconsistentPool)
	}
	if sqrt.Cmp(MinSqrtRatio) < 0 {
		return MinTick, nil
	}
	if sqrt.Cmp(MaxSqrtRatio) >= 0 {
		return MaxTick, nil
	}
	return TickFromSqrtX96(sqrt)
}

func floorToSpacing(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

func ceilToSpacing(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && tick > 0 {
		q++
	}
	return q * spacing
}

func clampTick(tick, lo, hi int32) int32 {
	if tick < lo {
		return lo
	}
	if tick > hi {
		return hi
	}
	return tick
}
