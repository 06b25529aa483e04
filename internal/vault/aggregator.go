package vault

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityDepth/internal/liquidity"
	"liquidityDepth/internal/model"
)

type DataSource interface {
	GetVaultData(ctx context.Context, vault common.Address) (model.VaultData, error)
}

type PriceSource interface {
	GetTokenPrice(ctx context.Context, token common.Address, platform string) (decimal.Decimal, error)
}

// Aggregator sums idle cash across a set of lending vaults.
type Aggregator struct {
	vaults   []model.VaultInfo
	data     DataSource
	prices   PriceSource
	platform string
	logger   *zap.Logger
}

func NewAggregator(vaults []model.VaultInfo, data DataSource, prices PriceSource, platform string, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{vaults: vaults, data: data, prices: prices, platform: platform, logger: logger}
}

// Progress is the live state of one aggregation run.
type Progress struct {
	mu    sync.Mutex
	lines []model.VaultLiquidity
	done  chan struct{}
}

// Snapshot returns the aggregate as of now; unfinished vaults are Loading.
func (p *Progress) Snapshot() model.VaultAggregate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return summarize(p.lines)
}

// Wait blocks until every vault has settled.
func (p *Progress) Wait() model.VaultAggregate {
	<-p.done
	return p.Snapshot()
}

// Done is closed once every vault has settled.
func (p *Progress) Done() <-chan struct{} {
	return p.done
}

func (p *Progress) settle(i int, line model.VaultLiquidity) {
	p.mu.Lock()
	p.lines[i] = line
	p.mu.Unlock()
}

// Start launches one fetch per vault and returns immediately.
func (a *Aggregator) Start(ctx context.Context) *Progress {
	p := &Progress{
		lines: make([]model.VaultLiquidity, len(a.vaults)),
		done:  make(chan struct{}),
	}
	for i, v := range a.vaults {
		p.lines[i] = model.VaultLiquidity{VaultInfo: v, Loading: true}
	}

	var wg sync.WaitGroup
	for i, v := range a.vaults {
		wg.Add(1)
		go func(i int, v model.VaultInfo) {
			defer wg.Done()
			p.settle(i, a.fetch(ctx, v))
		}(i, v)
	}
	go func() {
		wg.Wait()
		close(p.done)
	}()
	return p
}

// Aggregate runs a full aggregation and waits for it.
func (a *Aggregator) Aggregate(ctx context.Context) model.VaultAggregate {
	return a.Start(ctx).Wait()
}

func (a *Aggregator) fetch(ctx context.Context, v model.VaultInfo) model.VaultLiquidity {
	line := model.VaultLiquidity{VaultInfo: v}

	var (
		wg       sync.WaitGroup
		data     model.VaultData
		dataErr  error
		usd      decimal.Decimal
		priceErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		data, dataErr = a.data.GetVaultData(ctx, v.Vault)
	}()
	go func() {
		defer wg.Done()
		usd, priceErr = a.prices.GetTokenPrice(ctx, v.Underlying, a.platform)
	}()
	wg.Wait()

	log := a.logger.With(zap.String("vault", v.Vault.Hex()), zap.String("symbol", v.Symbol))
	if dataErr != nil {
		log.Warn("vault fetch failed", zap.Error(dataErr))
		line.Err = &model.SourceError{Source: "vault", Target: v.Symbol, Err: dataErr}
		return line
	}

	line.Cash = data.Cash.String()
	amount := liquidity.ScaleAmount(data.Cash, v.Decimals)
	line.CashAmount = &amount

	if priceErr != nil {
		log.Warn("vault price failed", zap.String("token", v.Underlying.Hex()), zap.Error(priceErr))
		line.Err = &model.SourceError{Source: "price", Target: v.Symbol, Err: priceErr}
		return line
	}
	value := amount.Mul(usd)
	line.PriceUSD = &usd
	line.CashUSD = &value
	return line
}

func summarize(lines []model.VaultLiquidity) model.VaultAggregate {
	agg := model.VaultAggregate{
		Vaults:       make([]model.VaultLiquidity, len(lines)),
		TotalCashUSD: decimal.Zero,
	}
	copy(agg.Vaults, lines)
	for _, line := range lines {
		if line.Loading {
			agg.Loading = true
			continue
		}
		if line.Err != nil {
			agg.Errors = append(agg.Errors, *line.Err)
		}
		if line.CashUSD != nil {
			agg.TotalCashUSD = agg.TotalCashUSD.Add(*line.CashUSD)
		}
	}
	return agg
}
