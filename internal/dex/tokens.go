package dex

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/model"
)

// TokenReader loads ERC20 metadata over RPC.
type TokenReader struct {
	caller Caller
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewTokenReader builds a TokenReader. Metadata is immutable so ttl is usually long.
func NewTokenReader(caller Caller, c *cache.Cache, ttl time.Duration, logger *zap.Logger) *TokenReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenReader{caller: caller, cache: c, ttl: ttl, logger: logger}
}

// GetTokenInfo returns name, symbol and decimals for token. Missing contract
// code is ErrUnknownToken; unreadable name or symbol get placeholders and an
// unreadable decimals() falls back to 18.
func (r *TokenReader) GetTokenInfo(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	return cache.Load(ctx, r.cache, cache.Key("token", token), r.ttl, func(ctx context.Context) (model.TokenMeta, error) {
		return r.fetch(ctx, token)
	})
}

func (r *TokenReader) fetch(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if r.caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	code, err := r.caller.CodeAt(ctx, token, nil)
	if err != nil {
		return meta, fmt.Errorf("code at %s: %w", token.Hex(), err)
	}
	if len(code) == 0 {
		return meta, fmt.Errorf("token %s: %w", token.Hex(), model.ErrUnknownToken)
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	if values, err := callMethod(ctx, r.caller, token, stringABI, "decimals"); err == nil {
		if decimals, err := asUint8(values[0]); err == nil {
			meta.Decimals = decimals
		} else {
			r.decimalsFallback(&meta, err)
		}
	} else {
		r.decimalsFallback(&meta, err)
	}

	meta.Symbol = r.readText(ctx, token, stringABI, bytes32ABI, "symbol", model.UnknownTokenSymbol)
	meta.Name = r.readText(ctx, token, stringABI, bytes32ABI, "name", model.UnknownTokenName)
	return meta, nil
}

func (r *TokenReader) decimalsFallback(meta *model.TokenMeta, err error) {
	r.logger.Warn("decimals call failed, assuming 18",
		zap.String("token", meta.Address),
		zap.Error(err),
	)
	meta.Decimals = model.DefaultTokenDecimals
	meta.DecimalsFallback = true
}

// readText tries the string ABI, then the bytes32 ABI used by older tokens.
func (r *TokenReader) readText(ctx context.Context, token common.Address, stringABI, bytes32ABI abi.ABI, method, placeholder string) string {
	values, err := callMethod(ctx, r.caller, token, stringABI, method)
	if err == nil {
		if s, ok := values[0].(string); ok && s != "" {
			return s
		}
	}
	values, err = callMethod(ctx, r.caller, token, bytes32ABI, method)
	if err == nil {
		if s, ok := bytes32ToString(values[0]); ok && s != "" {
			return s
		}
	}
	r.logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
	return placeholder
}
