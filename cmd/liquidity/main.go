package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityDepth/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "liquidity",
		Short:        "Uniswap V3 range liquidity and vault cash estimator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Estimate quote liquidity reachable within a price range",
		RunE:  runPool,
	}
	addSourceFlags(poolCmd.Flags())
	addRequestFlags(poolCmd.Flags())
	root.AddCommand(poolCmd)

	vaultsCmd := &cobra.Command{
		Use:   "vaults",
		Short: "Sum idle cash across the native lending vaults",
		RunE:  runVaults,
	}
	addSourceFlags(vaultsCmd.Flags())
	vaultsCmd.Flags().Bool("progress", false, "log per-vault progress while loading")
	root.AddCommand(vaultsCmd)

	tokenCmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Show ERC-20 token metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
	addSourceFlags(tokenCmd.Flags())
	root.AddCommand(tokenCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-estimate a range periodically and append results as JSONL",
		RunE:  runWatch,
	}
	addSourceFlags(watchCmd.Flags())
	addRequestFlags(watchCmd.Flags())
	watchCmd.Flags().Duration("interval", 30*time.Second, "refresh interval")
	watchCmd.Flags().Duration("timeout", 20*time.Second, "per-refresh timeout")
	watchCmd.Flags().Int("max-runs", 0, "stop after this many refreshes, 0 means forever")
	watchCmd.Flags().String("out", "-", "output JSONL path, - for stdout")
	watchCmd.Flags().String("state-file", "", "optional file holding the last emitted snapshot")
	root.AddCommand(watchCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve estimates over HTTP",
		RunE:  runServe,
	}
	addSourceFlags(serveCmd.Flags())
	serveCmd.Flags().String("listen", ":8080", "listen address")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "Ethereum RPC URL")
	fs.String("platform", "ethereum", "CoinGecko asset platform")
	fs.String("pool-source", config.SourceChain, "pool state source (chain, subgraph)")
	fs.String("tick-source", config.SourceChain, "tick source (chain, subgraph, postgres)")
	fs.String("subgraph-url", "", "Uniswap V3 subgraph URL")
	fs.String("subgraph-api-key", "", "subgraph gateway API key")
	fs.String("coingecko-url", "https://api.coingecko.com/api/v3", "CoinGecko API base URL")
	fs.String("coingecko-api-key", "", "CoinGecko demo API key")
	fs.String("pg-dsn", "", "Postgres DSN for the tick store")
	fs.Duration("cache-ttl", 30*time.Second, "cache TTL for pools, ticks and prices")
	fs.Duration("token-ttl", time.Hour, "cache TTL for token metadata")
	fs.Duration("http-timeout", 15*time.Second, "HTTP request timeout")
	fs.Int("max-retries", 5, "maximum retry attempts")
	fs.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fs.Int("tick-batch-size", 200, "tick calls per JSON-RPC batch")
	fs.Int("max-ticks", 20000, "maximum ticks scanned per request")
	fs.Int("workers", 8, "concurrent tick batches")
	fs.StringToString("price-override", nil, "pinned USD prices (token=price, comma-separated)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addRequestFlags(fs *pflag.FlagSet) {
	fs.String("pool", "", "Uniswap V3 pool address")
	fs.String("base", "", "base token address (token0 or token1 of the pool)")
	fs.Float64("range", 5, "price move in percent, 0 <= range < 100")
}

// setup loads and validates config and builds the logger and a signal-aware context.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, context.Context, context.CancelFunc, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return cfg, logger, ctx, stop, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
