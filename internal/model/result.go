package model

import "github.com/shopspring/decimal"

// Status summarizes how complete a LiquidityResult is.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusNoData  Status = "no_data"
)

// LiquidityResult is the outcome of one range estimate. Big integers are
// rendered as decimal strings; decimal pointers are nil when unavailable.
type LiquidityResult struct {
	Request           PriceRangeRequest `json:"request"`
	QuoteToken        string            `json:"quote_token,omitempty"`
	QuoteSymbol       string            `json:"quote_symbol,omitempty"`
	IsToken0Base      bool              `json:"is_token0_base"`
	CurrentPrice      float64           `json:"current_price"`
	TargetPrice       float64           `json:"target_price"`
	StartSqrtPriceX96 string            `json:"start_sqrt_price_x96,omitempty"`
	EndSqrtPriceX96   string            `json:"end_sqrt_price_x96,omitempty"`
	StartTick         int32             `json:"start_tick"`
	EndTick           int32             `json:"end_tick"`
	TicksCrossed      int               `json:"ticks_crossed"`
	ActiveLiquidity   string            `json:"active_liquidity,omitempty"`
	TokenAmount       *decimal.Decimal  `json:"token_amount"`
	QuotePriceUSD     *decimal.Decimal  `json:"quote_price_usd"`
	USDValue          *decimal.Decimal  `json:"usd_value"`
	Status            Status            `json:"status"`
	Failures          []SourceError     `json:"failures,omitempty"`
}

// AddFailure records an upstream failure and downgrades the status.
func (r *LiquidityResult) AddFailure(status Status, source, target string, err error) {
	r.Failures = append(r.Failures, SourceError{Source: source, Target: target, Err: err})
	if r.Status == StatusNoData {
		return
	}
	r.Status = status
}
