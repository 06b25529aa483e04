package model

import (
	"math/big"
	"sort"
)

// TickRecord is one initialized tick boundary. LiquidityNet is the change in
// active liquidity when price crosses the tick moving upward.
type TickRecord struct {
	TickIdx      int32
	LiquidityNet *big.Int
}

// NormalizeTicks sorts records by tick index, keeps the last record seen for
// each index and drops records without a liquidity delta. When descending is
// set the result is returned highest tick first.
func NormalizeTicks(records []TickRecord, descending bool) []TickRecord {
	byIdx := make(map[int32]TickRecord, len(records))
	for _, rec := range records {
		if rec.LiquidityNet == nil {
			continue
		}
		byIdx[rec.TickIdx] = rec
	}

	out := make([]TickRecord, 0, len(byIdx))
	for _, rec := range byIdx {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].TickIdx > out[j].TickIdx
		}
		return out[i].TickIdx < out[j].TickIdx
	})
	return out
}
