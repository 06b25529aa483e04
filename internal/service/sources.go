package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"liquidityDepth/internal/model"
)

type PoolSource interface {
	GetPool(ctx context.Context, pool common.Address) (model.PoolSnapshot, error)
}

// TickSource returns initialized ticks between two bounds, inclusive,
// ordered from startTick toward endTick.
type TickSource interface {
	GetTicks(ctx context.Context, pool model.PoolSnapshot, startTick, endTick int32) ([]model.TickRecord, error)
}

type PriceSource interface {
	GetTokenPrice(ctx context.Context, token common.Address, platform string) (decimal.Decimal, error)
}

type TokenSource interface {
	GetTokenInfo(ctx context.Context, token common.Address) (model.TokenMeta, error)
}
