package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityDepth/internal/httpapi"
	"liquidityDepth/internal/model"
	"liquidityDepth/internal/service"
	"liquidityDepth/internal/storage"
	"liquidityDepth/internal/watch"
)

func runPool(cmd *cobra.Command, _ []string) error {
	cfg, logger, ctx, stop, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer logger.Sync()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	req := model.PriceRangeRequest{Pool: cfg.Pool, BaseToken: cfg.BaseToken, RangePercent: cfg.RangePercent}
	res, err := d.service().Estimate(ctx, req)
	if err != nil {
		return err
	}

	logger.Info("estimate",
		zap.String("pool", req.Pool),
		zap.String("status", string(res.Status)),
		zap.Int32("start_tick", res.StartTick),
		zap.Int32("end_tick", res.EndTick),
		zap.Int("ticks_crossed", res.TicksCrossed),
	)
	return storage.NewJsonlWriter(cmd.OutOrStdout()).Put(res)
}

func runVaults(cmd *cobra.Command, _ []string) error {
	cfg, logger, ctx, stop, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer logger.Sync()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.requireChain(); err != nil {
		return err
	}

	progress := d.aggregator().Start(ctx)
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		for _, line := range progress.Snapshot().Vaults {
			logger.Info("vault loading", zap.String("symbol", line.Symbol), zap.Bool("loading", line.Loading))
		}
	}

	agg := progress.Wait()
	logger.Info("vaults",
		zap.String("total_cash_usd", agg.TotalCashUSD.StringFixed(2)),
		zap.Int("errors", len(agg.Errors)),
	)
	return storage.NewJsonlWriter(cmd.OutOrStdout()).Put(agg)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, logger, ctx, stop, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer logger.Sync()

	token, err := service.ParseAddress("address", args[0])
	if err != nil {
		return err
	}

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.requireChain(); err != nil {
		return err
	}

	meta, err := d.tokens.GetTokenInfo(ctx, token)
	if err != nil {
		return fmt.Errorf("token info: %w", err)
	}
	return storage.NewJsonlWriter(cmd.OutOrStdout()).Put(meta)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, ctx, stop, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer logger.Sync()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	req := model.PriceRangeRequest{Pool: cfg.Pool, BaseToken: cfg.BaseToken, RangePercent: cfg.RangePercent}
	runner := watch.NewRunner(watch.Config{
		Interval:  cfg.Interval,
		Timeout:   cfg.Timeout,
		MaxRuns:   cfg.MaxRuns,
		StatePath: cfg.StateFile,
	}, d.service(), storage.NewJsonlStorage(cfg.Out), req, logger)

	logger.Info("watch start",
		zap.String("pool", req.Pool),
		zap.String("base", req.BaseToken),
		zap.Float64("range_percent", req.RangePercent),
		zap.Duration("interval", cfg.Interval),
		zap.String("out", cfg.Out),
	)
	return runner.Run(ctx)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, ctx, stop, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer logger.Sync()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.requireChain(); err != nil {
		return err
	}

	srv := httpapi.NewServer(d.service(), d.aggregator(), d.tokens, logger)
	return srv.ListenAndServe(ctx, cfg.Listen)
}
