package service

import (
	"context"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityDepth/internal/liquidity"
	"liquidityDepth/internal/model"
)

// Service estimates range liquidity for a pool.
type Service struct {
	pools    PoolSource
	ticks    TickSource
	prices   PriceSource
	platform string
	logger   *zap.Logger
}

func New(pools PoolSource, ticks TickSource, prices PriceSource, platform string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{pools: pools, ticks: ticks, prices: prices, platform: platform, logger: logger}
}

// ParseAddress accepts a 0x-prefixed 20-byte hex address in any case.
func ParseAddress(field, value string) (common.Address, error) {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "0X") || !common.IsHexAddress(v) {
		return common.Address{}, &model.ValidationError{Field: field, Value: value, Err: model.ErrInvalidAddress}
	}
	return common.HexToAddress(v), nil
}

// ValidateRequest checks addresses and the range percent.
func ValidateRequest(req model.PriceRangeRequest) (pool, base common.Address, err error) {
	if pool, err = ParseAddress("pool", req.Pool); err != nil {
		return common.Address{}, common.Address{}, err
	}
	if base, err = ParseAddress("base_token", req.BaseToken); err != nil {
		return common.Address{}, common.Address{}, err
	}
	if !liquidity.ValidRangePercent(req.RangePercent) {
		return common.Address{}, common.Address{}, &model.ValidationError{
			Field: "range_percent",
			Value: strconv.FormatFloat(req.RangePercent, 'f', -1, 64),
			Err:   model.ErrInvalidRange,
		}
	}
	return pool, base, nil
}

// Estimate computes how much of the quote token the pool provides while the
// price moves RangePercent against the base token. Invalid input is returned
// as an error; upstream failures are reported in the result.
func (s *Service) Estimate(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error) {
	poolAddr, base, err := ValidateRequest(req)
	if err != nil {
		return model.LiquidityResult{}, err
	}
	res := model.LiquidityResult{Request: req, Status: model.StatusOK}
	log := s.logger.With(zap.String("pool", poolAddr.Hex()), zap.Float64("range_percent", req.RangePercent))

	snap, err := s.pools.GetPool(ctx, poolAddr)
	if err != nil {
		log.Warn("pool fetch failed", zap.Error(err))
		res.AddFailure(model.StatusNoData, "pool", poolAddr.Hex(), err)
		return res, nil
	}
	if !snap.HasToken(base) {
		return model.LiquidityResult{}, &model.ValidationError{Field: "base_token", Value: req.BaseToken, Err: model.ErrInvalidBaseToken}
	}

	isToken0Base := base == snap.Token0
	quote := snap.Token0
	if isToken0Base {
		quote = snap.Token1
	}
	quoteDecimals, _ := snap.Decimals(quote)
	res.IsToken0Base = isToken0Base
	res.QuoteToken = quote.Hex()
	res.QuoteSymbol = snap.Symbol(quote)

	plan, err := liquidity.PlanRange(snap, isToken0Base, req.RangePercent)
	if err != nil {
		log.Warn("pool state rejected", zap.Error(err))
		res.AddFailure(model.StatusNoData, "pool", poolAddr.Hex(), err)
		return res, nil
	}
	res.CurrentPrice = plan.CurrentPrice
	res.TargetPrice = plan.TargetPrice
	res.StartSqrtPriceX96 = plan.StartSqrtX96.String()
	res.EndSqrtPriceX96 = plan.EndSqrtX96.String()
	res.StartTick = plan.Window.Start
	res.EndTick = plan.Window.End

	var (
		wg       sync.WaitGroup
		ticks    []model.TickRecord
		tickErr  error
		usdPrice decimal.Decimal
		priceErr error
	)
	if !plan.Window.Empty() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticks, tickErr = s.ticks.GetTicks(ctx, snap, plan.Window.Start, plan.Window.End)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		usdPrice, priceErr = s.prices.GetTokenPrice(ctx, quote, s.platform)
	}()
	wg.Wait()

	if priceErr == nil {
		res.QuotePriceUSD = &usdPrice
	}
	if tickErr != nil {
		log.Warn("tick fetch failed", zap.Int32("start", plan.Window.Start), zap.Int32("end", plan.Window.End), zap.Error(tickErr))
		res.AddFailure(model.StatusNoData, "ticks", poolAddr.Hex(), tickErr)
		return res, nil
	}

	active := liquidity.AccumulateLiquidity(ticks, snap.Tick, snap.Liquidity, plan.Window.End)
	res.ActiveLiquidity = active.String()
	res.TicksCrossed = liquidity.CrossedTicks(ticks, snap.Tick, plan.Window.End)

	raw := liquidity.QuantityInRange(active, plan.StartSqrtX96, plan.EndSqrtX96, isToken0Base)
	if raw.Sign() < 0 {
		log.Debug("negative quantity clamped", zap.String("raw", raw.String()))
		raw = new(big.Int)
	}
	amount := liquidity.ScaleAmount(raw, quoteDecimals)
	res.TokenAmount = &amount

	if priceErr != nil {
		log.Warn("price fetch failed", zap.String("token", quote.Hex()), zap.Error(priceErr))
		res.AddFailure(model.StatusPartial, "price", quote.Hex(), priceErr)
		return res, nil
	}
	usd := amount.Mul(usdPrice)
	res.USDValue = &usd

	log.Debug("estimate done",
		zap.String("quote", quote.Hex()),
		zap.String("amount", amount.String()),
		zap.String("usd", usd.String()),
		zap.Int("ticks_crossed", res.TicksCrossed),
	)
	return res, nil
}
