package model

import "strings"

// PriceRangeRequest asks how much of the non-base token is reachable while
// price moves RangePercent away from the current pool price.
type PriceRangeRequest struct {
	Pool         string  `json:"pool"`
	BaseToken    string  `json:"base_token"`
	RangePercent float64 `json:"range_percent"`
}

// Key returns the request with addresses lower-cased so equal queries compare equal.
func (r PriceRangeRequest) Key() PriceRangeRequest {
	return PriceRangeRequest{
		Pool:         strings.ToLower(strings.TrimSpace(r.Pool)),
		BaseToken:    strings.ToLower(strings.TrimSpace(r.BaseToken)),
		RangePercent: r.RangePercent,
	}
}
