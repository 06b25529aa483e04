package postgres

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityDepth/internal/model"
)

const ticksQuery = `
	SELECT tick_idx, liquidity_net::text
	FROM pool_ticks
	WHERE pool_address = $1 AND tick_idx BETWEEN $2 AND $3
	ORDER BY tick_idx
`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads indexed tick state from Postgres. It never writes.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, db: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetTicks returns ticks of pool between startTick and endTick inclusive in
// the direction of travel. Rows are keyed by lower-case pool address.
func (s *Store) GetTicks(ctx context.Context, pool model.PoolSnapshot, startTick, endTick int32) ([]model.TickRecord, error) {
	lower, upper := min(startTick, endTick), max(startTick, endTick)
	rows, err := s.db.Query(ctx, ticksQuery, strings.ToLower(pool.Address.Hex()), lower, upper)
	if err != nil {
		return nil, fmt.Errorf("query pool_ticks: %v: %w", err, model.ErrTickFetchFailed)
	}
	defer rows.Close()

	var records []model.TickRecord
	for rows.Next() {
		var (
			idx int32
			net string
		)
		if err := rows.Scan(&idx, &net); err != nil {
			return nil, fmt.Errorf("scan pool_ticks: %v: %w", err, model.ErrTickFetchFailed)
		}
		value, ok := new(big.Int).SetString(net, 10)
		if !ok {
			return nil, fmt.Errorf("pool_ticks liquidity_net %q: %w", net, model.ErrTickFetchFailed)
		}
		records = append(records, model.TickRecord{TickIdx: idx, LiquidityNet: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read pool_ticks: %v: %w", err, model.ErrTickFetchFailed)
	}
	return model.NormalizeTicks(records, startTick > endTick), nil
}
