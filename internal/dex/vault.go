package dex

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/model"
)

// VaultReader loads lending vault state over RPC.
type VaultReader struct {
	caller Caller
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewVaultReader(caller Caller, c *cache.Cache, ttl time.Duration, logger *zap.Logger) *VaultReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaultReader{caller: caller, cache: c, ttl: ttl, logger: logger}
}

// GetVaultData reads every vault view in one JSON-RPC batch.
func (r *VaultReader) GetVaultData(ctx context.Context, vault common.Address) (model.VaultData, error) {
	return cache.Load(ctx, r.cache, cache.Key("vault", vault), r.ttl, func(ctx context.Context) (model.VaultData, error) {
		data, err := r.fetch(ctx, vault)
		if err != nil {
			return model.VaultData{}, fmt.Errorf("vault %s: %v: %w", vault.Hex(), err, model.ErrVaultFetchFailed)
		}
		return data, nil
	})
}

func (r *VaultReader) fetch(ctx context.Context, vault common.Address) (model.VaultData, error) {
	if r.caller == nil {
		return model.VaultData{}, fmt.Errorf("chain client is nil")
	}
	parsed, err := VaultABI()
	if err != nil {
		return model.VaultData{}, fmt.Errorf("parse vault abi: %w", err)
	}

	values, err := callBatch(ctx, r.caller, vault, parsed, []methodCall{
		{method: "name"},
		{method: "symbol"},
		{method: "decimals"},
		{method: "underlying"},
		{method: "getCash"},
		{method: "totalBorrows"},
		{method: "totalReserves"},
		{method: "exchangeRateStored"},
	})
	if err != nil {
		return model.VaultData{}, err
	}

	data := model.VaultData{Address: vault}
	data.Name, _ = values[0][0].(string)
	data.Symbol, _ = values[1][0].(string)
	if data.Decimals, err = asUint8(values[2][0]); err != nil {
		return model.VaultData{}, fmt.Errorf("decimals: %w", err)
	}
	if data.Underlying, err = asAddress(values[3][0]); err != nil {
		return model.VaultData{}, fmt.Errorf("underlying: %w", err)
	}
	if data.Cash, err = asBigInt(values[4][0]); err != nil {
		return model.VaultData{}, fmt.Errorf("getCash: %w", err)
	}
	if data.TotalBorrows, err = asBigInt(values[5][0]); err != nil {
		return model.VaultData{}, fmt.Errorf("totalBorrows: %w", err)
	}
	if data.TotalReserves, err = asBigInt(values[6][0]); err != nil {
		return model.VaultData{}, fmt.Errorf("totalReserves: %w", err)
	}
	if data.ExchangeRate, err = asBigInt(values[7][0]); err != nil {
		return model.VaultData{}, fmt.Errorf("exchangeRateStored: %w", err)
	}

	r.logger.Debug("vault loaded",
		zap.String("vault", vault.Hex()),
		zap.String("symbol", data.Symbol),
		zap.String("cash", data.Cash.String()),
	)
	return data, nil
}
