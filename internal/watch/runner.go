package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"liquidityDepth/internal/model"
	"liquidityDepth/internal/service"
	"liquidityDepth/internal/storage"
)

// Estimator computes one liquidity result.
type Estimator interface {
	Estimate(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error)
}

// Config holds runtime settings for the watcher.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	// MaxRuns stops the watcher after that many refreshes. Zero runs until
	// the context is cancelled.
	MaxRuns   int
	StatePath string
}

// Snapshot is one emitted estimate.
type Snapshot struct {
	Seq        uint64                `json:"seq"`
	ObservedAt string                `json:"observed_at"`
	Result     model.LiquidityResult `json:"result"`
}

// Runner re-estimates a request on a fixed interval and writes every fresh
// result to the sink. Refreshes may overlap; a result whose request was
// replaced, or that finished after a newer refresh, is dropped.
type Runner struct {
	cfg     Config
	est     Estimator
	sink    storage.Sink
	state   *StateStore
	logger  *zap.Logger
	tracker service.Tracker[model.PriceRangeRequest, Snapshot]

	mu   sync.Mutex
	req  model.PriceRangeRequest
	emit sync.Mutex
	wg   sync.WaitGroup
}

func NewRunner(cfg Config, est Estimator, sink storage.Sink, req model.PriceRangeRequest, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		est:    est,
		sink:   sink,
		state:  NewStateStore(cfg.StatePath),
		logger: logger,
		req:    req.Key(),
	}
}

// SetRequest replaces the watched request. In-flight refreshes for the old
// request will not be emitted.
func (r *Runner) SetRequest(req model.PriceRangeRequest) error {
	if _, _, err := service.ValidateRequest(req); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.req = req.Key()
	r.tracker.Begin(r.req)
	return nil
}

func (r *Runner) Request() model.PriceRangeRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.req
}

// begin opens a ticket for the current request. Reading the request and
// opening the ticket happen under the same lock as SetRequest.
func (r *Runner) begin() service.Ticket[model.PriceRangeRequest] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.Begin(r.req)
}

// Latest returns the newest emitted snapshot.
func (r *Runner) Latest() (Snapshot, bool) {
	return r.tracker.Latest()
}

// Run refreshes immediately and then on every interval tick.
func (r *Runner) Run(ctx context.Context) error {
	if r.est == nil {
		return fmt.Errorf("estimator is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}
	if _, _, err := service.ValidateRequest(r.Request()); err != nil {
		return err
	}

	prev, ok, err := r.state.Load()
	if err != nil {
		return err
	}
	if ok {
		r.logger.Info("previous snapshot",
			zap.Uint64("seq", prev.Seq),
			zap.String("observed_at", prev.ObservedAt),
			zap.String("status", string(prev.Result.Status)),
		)
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	runs := 0
	launch := func() {
		runs++
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.refresh(ctx)
		}()
	}

	launch()
	for {
		if r.cfg.MaxRuns > 0 && runs >= r.cfg.MaxRuns {
			r.wg.Wait()
			return nil
		}
		select {
		case <-ctx.Done():
			r.wg.Wait()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			launch()
		}
	}
}

func (r *Runner) refresh(ctx context.Context) {
	ticket := r.begin()
	req := ticket.Params
	log := r.logger.With(zap.Uint64("seq", ticket.Seq), zap.String("pool", req.Pool))

	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	res, err := r.est.Estimate(runCtx, req)
	if err != nil {
		log.Warn("estimate failed", zap.Error(err))
		return
	}

	snap := Snapshot{
		Seq:        ticket.Seq,
		ObservedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Result:     res,
	}

	r.emit.Lock()
	defer r.emit.Unlock()
	if !r.tracker.Commit(ticket, snap) {
		log.Debug("stale result dropped")
		return
	}
	if err := r.sink.Put(snap); err != nil {
		log.Error("write snapshot", zap.Error(err))
		return
	}
	if err := r.state.Save(snap); err != nil {
		log.Warn("save state", zap.Error(err))
	}
	log.Info("snapshot",
		zap.String("status", string(res.Status)),
		zap.Int("ticks_crossed", res.TicksCrossed),
		zap.Duration("took", time.Since(started)),
	)
}
