package dex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/model"
)

// TickRange is an inclusive, spacing-aligned tick range.
type TickRange struct {
	From int32
	To   int32
}

// splitTickRange splits [from, to] stepped by spacing into ranges holding at
// most batchSize ticks each.
func splitTickRange(from, to, spacing int32, batchSize int) ([]TickRange, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("tick spacing must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to tick must be >= from tick")
	}

	step := int64(spacing) * int64(batchSize)
	ranges := make([]TickRange, 0)
	for start := int64(from); start <= int64(to); start += step {
		end := start + step - int64(spacing)
		if end > int64(to) {
			end = int64(to)
		}
		ranges = append(ranges, TickRange{From: int32(start), To: int32(end)})
	}
	return ranges, nil
}

// TickReader enumerates tick state over RPC with batched ticks(int24) calls.
type TickReader struct {
	caller    Caller
	pool      *ants.Pool
	batchSize int
	maxTicks  int
	cache     *cache.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewTickReader builds a TickReader running at most workers batches at once.
func NewTickReader(caller Caller, workers, batchSize, maxTicks int, c *cache.Cache, ttl time.Duration, logger *zap.Logger) (*TickReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create tick worker pool: %w", err)
	}
	return &TickReader{
		caller:    caller,
		pool:      pool,
		batchSize: batchSize,
		maxTicks:  maxTicks,
		cache:     c,
		ttl:       ttl,
		logger:    logger,
	}, nil
}

// Close releases the worker pool.
func (r *TickReader) Close() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// GetTicks returns initialized ticks between startTick and endTick inclusive,
// ordered in the direction of travel. Any failed batch fails the whole fetch.
func (r *TickReader) GetTicks(ctx context.Context, pool model.PoolSnapshot, startTick, endTick int32) ([]model.TickRecord, error) {
	key := cache.Key("ticks", pool.Address, startTick, endTick)
	return cache.Load(ctx, r.cache, key, r.ttl, func(ctx context.Context) ([]model.TickRecord, error) {
		records, err := r.fetch(ctx, pool, min(startTick, endTick), max(startTick, endTick))
		if err != nil {
			return nil, err
		}
		return model.NormalizeTicks(records, startTick > endTick), nil
	})
}

func (r *TickReader) fetch(ctx context.Context, pool model.PoolSnapshot, lower, upper int32) ([]model.TickRecord, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	spacing := pool.TickSpacing
	if spacing <= 0 {
		return nil, fmt.Errorf("tick spacing %d: %w", spacing, model.ErrInconsistentPool)
	}
	count := int((int64(upper)-int64(lower))/int64(spacing)) + 1
	if r.maxTicks > 0 && count > r.maxTicks {
		return nil, fmt.Errorf("%d ticks exceeds limit %d: %w", count, r.maxTicks, model.ErrTickWindowTooWide)
	}

	ranges, err := splitTickRange(lower, upper, spacing, r.batchSize)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		records  []model.TickRecord
		firstErr error
	)
	for _, tr := range ranges {
		tr := tr
		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()
			batch, err := r.fetchRange(ctx, pool.Address, spacing, tr)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			records = append(records, batch...)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit tick batch: %w", submitErr)
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("pool %s ticks [%d, %d]: %v: %w", pool.Address.Hex(), lower, upper, firstErr, model.ErrTickFetchFailed)
	}
	r.logger.Debug("ticks loaded",
		zap.String("pool", pool.Address.Hex()),
		zap.Int32("lower", lower),
		zap.Int32("upper", upper),
		zap.Int("batches", len(ranges)),
		zap.Int("initialized", len(records)),
	)
	return records, nil
}

func (r *TickReader) fetchRange(ctx context.Context, pool common.Address, spacing int32, tr TickRange) ([]model.TickRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}

	methods := make([]methodCall, 0, (tr.To-tr.From)/spacing+1)
	idx := make([]int32, 0, cap(methods))
	for tick := int64(tr.From); tick <= int64(tr.To); tick += int64(spacing) {
		methods = append(methods, methodCall{method: "ticks", args: []interface{}{bigTick(int32(tick))}})
		idx = append(idx, int32(tick))
	}

	values, err := callBatch(ctx, r.caller, pool, poolABI, methods)
	if err != nil {
		return nil, err
	}

	out := make([]model.TickRecord, 0)
	for i, v := range values {
		if len(v) < 8 {
			return nil, errors.New("ticks: short output")
		}
		initialized, err := asBool(v[7])
		if err != nil {
			return nil, fmt.Errorf("tick %d initialized: %w", idx[i], err)
		}
		if !initialized {
			continue
		}
		net, err := asBigInt(v[1])
		if err != nil {
			return nil, fmt.Errorf("tick %d liquidityNet: %w", idx[i], err)
		}
		out = append(out, model.TickRecord{TickIdx: idx[i], LiquidityNet: net})
	}
	return out, nil
}
