package dex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/model"
)

// PoolReader loads pool state over RPC.
type PoolReader struct {
	caller Caller
	tokens *TokenReader
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewPoolReader(caller Caller, tokens *TokenReader, c *cache.Cache, ttl time.Duration, logger *zap.Logger) *PoolReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolReader{caller: caller, tokens: tokens, cache: c, ttl: ttl, logger: logger}
}

// GetPool reads immutables, slot0 and liquidity in one batch, then resolves
// both tokens' decimals and symbols.
func (r *PoolReader) GetPool(ctx context.Context, pool common.Address) (model.PoolSnapshot, error) {
	return cache.Load(ctx, r.cache, cache.Key("pool", pool), r.ttl, func(ctx context.Context) (model.PoolSnapshot, error) {
		return r.fetch(ctx, pool)
	})
}

func (r *PoolReader) fetch(ctx context.Context, pool common.Address) (model.PoolSnapshot, error) {
	if r.caller == nil {
		return model.PoolSnapshot{}, fmt.Errorf("chain client is nil")
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := callBatch(ctx, r.caller, pool, poolABI, []methodCall{
		{method: "token0"},
		{method: "token1"},
		{method: "fee"},
		{method: "tickSpacing"},
		{method: "slot0"},
		{method: "liquidity"},
	})
	if err != nil {
		if errors.Is(err, errEmptyOutput) {
			return model.PoolSnapshot{}, fmt.Errorf("pool %s: %w", pool.Hex(), model.ErrPoolNotFound)
		}
		return model.PoolSnapshot{}, err
	}

	snap := model.PoolSnapshot{Address: pool}
	if snap.Token0, err = asAddress(values[0][0]); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token0: %w", err)
	}
	if snap.Token1, err = asAddress(values[1][0]); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token1: %w", err)
	}
	feeInt, err := asBigInt(values[2][0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("fee: %w", err)
	}
	snap.Fee = uint32(feeInt.Uint64())

	spacingInt, err := asBigInt(values[3][0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("tick spacing: %w", err)
	}
	if snap.TickSpacing, err = int24FromBig(spacingInt); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("tick spacing: %w", err)
	}

	slot0 := values[4]
	if len(slot0) < 2 {
		return model.PoolSnapshot{}, fmt.Errorf("slot0: short output")
	}
	if snap.SqrtPriceX96, err = asBigInt(slot0[0]); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(slot0[1])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 tick: %w", err)
	}
	if snap.Tick, err = int24FromBig(tickInt); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("slot0 tick: %w", err)
	}
	if snap.Liquidity, err = asBigInt(values[5][0]); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("liquidity: %w", err)
	}

	if r.tokens != nil {
		token0, err := r.tokens.GetTokenInfo(ctx, snap.Token0)
		if err != nil {
			return model.PoolSnapshot{}, fmt.Errorf("token0 metadata: %w", err)
		}
		token1, err := r.tokens.GetTokenInfo(ctx, snap.Token1)
		if err != nil {
			return model.PoolSnapshot{}, fmt.Errorf("token1 metadata: %w", err)
		}
		snap.Token0Decimals, snap.Token0Symbol = token0.Decimals, token0.Symbol
		snap.Token1Decimals, snap.Token1Symbol = token1.Decimals, token1.Symbol
	}

	r.logger.Debug("pool loaded",
		zap.String("pool", pool.Hex()),
		zap.Uint32("fee", snap.Fee),
		zap.Int32("tick", snap.Tick),
		zap.String("liquidity", snap.Liquidity.String()),
	)
	return snap, nil
}
