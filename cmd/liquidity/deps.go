package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/chain"
	"liquidityDepth/internal/config"
	"liquidityDepth/internal/dex"
	"liquidityDepth/internal/httpclient"
	"liquidityDepth/internal/price"
	"liquidityDepth/internal/service"
	"liquidityDepth/internal/storage/postgres"
	"liquidityDepth/internal/subgraph"
	"liquidityDepth/internal/vault"
)

// deps holds the collaborators selected by config.
type deps struct {
	cfg    config.Config
	logger *zap.Logger

	chain  *chain.Client
	tokens *dex.TokenReader
	vaults *dex.VaultReader
	pools  service.PoolSource
	ticks  service.TickSource
	prices price.Source

	closers []func()
}

func buildDeps(ctx context.Context, cfg config.Config, logger *zap.Logger) (*deps, error) {
	d := &deps{cfg: cfg, logger: logger}
	memory := cache.New(cfg.CacheTTL)

	if cfg.RPCURL != "" {
		client, err := chain.NewClient(ctx, cfg.RPCURL, chain.RetryConfig{
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		})
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		d.chain = client
		d.closers = append(d.closers, client.Close)
		d.tokens = dex.NewTokenReader(client, memory, cfg.TokenTTL, logger)
		d.vaults = dex.NewVaultReader(client, memory, cfg.CacheTTL, logger)
	}

	httpClient := httpclient.New(cfg.HTTPTimeout, cfg.MaxRetries, cfg.RetryBackoff)
	var graph *subgraph.Client
	if cfg.SubgraphURL != "" {
		graph = subgraph.NewClient(httpClient, cfg.SubgraphURL, cfg.SubgraphAPIKey, memory, cfg.CacheTTL, logger)
	}

	switch cfg.PoolSource {
	case config.SourceSubgraph:
		d.pools = graph
	default:
		d.pools = dex.NewPoolReader(d.chain, d.tokens, memory, cfg.CacheTTL, logger)
	}

	switch cfg.TickSource {
	case config.SourceSubgraph:
		d.ticks = graph
	case config.SourcePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, store.Close)
		d.ticks = store
	default:
		reader, err := dex.NewTickReader(d.chain, cfg.Workers, cfg.TickBatchSize, cfg.MaxTicks, memory, cfg.CacheTTL, logger)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, reader.Close)
		d.ticks = reader
	}

	pinned, err := price.ParseOverrides(cfg.PriceOverrides)
	if err != nil {
		d.Close()
		return nil, err
	}
	coingecko := price.NewCoinGecko(httpClient, cfg.CoinGeckoURL, cfg.CoinGeckoAPIKey, memory, cfg.CacheTTL, logger)
	d.prices = price.NewOverrides(pinned, coingecko)

	return d, nil
}

func (d *deps) requireChain() error {
	if d.chain == nil {
		return fmt.Errorf("rpc url is required")
	}
	return nil
}

func (d *deps) service() *service.Service {
	return service.New(d.pools, d.ticks, d.prices, d.cfg.Platform, d.logger)
}

func (d *deps) aggregator() *vault.Aggregator {
	return vault.NewAggregator(vault.Registry(), d.vaults, d.prices, d.cfg.Platform, d.logger)
}

// Close releases collaborators in reverse order of creation.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
