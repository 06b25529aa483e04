package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolSnapshot is a point-in-time view of a concentrated-liquidity pool.
// SqrtPriceX96 is sqrt(token1/token0) in raw units, scaled by 2^96.
type PoolSnapshot struct {
	Address        common.Address
	Token0         common.Address
	Token1         common.Address
	Token0Decimals uint8
	Token1Decimals uint8
	Token0Symbol   string
	Token1Symbol   string
	Fee            uint32
	TickSpacing    int32
	SqrtPriceX96   *big.Int
	Tick           int32
	Liquidity      *big.Int
}

// HasToken reports whether token is one of the pool's two assets.
func (p PoolSnapshot) HasToken(token common.Address) bool {
	return token == p.Token0 || token == p.Token1
}

// Decimals returns the decimals of token, or false if it is not a pool asset.
func (p PoolSnapshot) Decimals(token common.Address) (uint8, bool) {
	switch token {
	case p.Token0:
		return p.Token0Decimals, true
	case p.Token1:
		return p.Token1Decimals, true
	default:
		return 0, false
	}
}

// Symbol returns the cached symbol for token, empty if unknown.
func (p PoolSnapshot) Symbol(token common.Address) string {
	switch token {
	case p.Token0:
		return p.Token0Symbol
	case p.Token1:
		return p.Token1Symbol
	default:
		return ""
	}
}
