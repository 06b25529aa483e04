package subgraph

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/httpclient"
	"liquidityDepth/internal/liquidity"
	"liquidityDepth/internal/model"
)

// PageSize is the largest page the hosted subgraph returns.
const PageSize = 1000

const poolQuery = `query getPool($poolAddress: String!) {
  pool(id: $poolAddress) {
    tick
    token0 { symbol id decimals }
    token1 { symbol id decimals }
    feeTier
    sqrtPrice
    liquidity
  }
}`

const ticksQuery = `query getTicks($poolAddress: String!, $startTick: Int!, $endTick: Int!, $skip: Int!) {
  ticks(
    first: 1000
    skip: $skip
    where: {pool: $poolAddress, tickIdx_gte: $startTick, tickIdx_lte: $endTick, liquidityGross_gt: "0"}
    orderBy: tickIdx
    orderDirection: asc
  ) {
    tickIdx
    liquidityNet
  }
}`

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphError struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
}

type poolResponse struct {
	Tick      *string       `json:"tick"`
	Token0    tokenResponse `json:"token0"`
	Token1    tokenResponse `json:"token1"`
	FeeTier   string        `json:"feeTier"`
	SqrtPrice string        `json:"sqrtPrice"`
	Liquidity string        `json:"liquidity"`
}

type tickResponse struct {
	TickIdx      string `json:"tickIdx"`
	LiquidityNet string `json:"liquidityNet"`
}

// Client reads pools and ticks from a Uniswap V3 subgraph.
type Client struct {
	http   *httpclient.Client
	url    string
	apiKey string
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewClient(httpClient *httpclient.Client, url, apiKey string, c *cache.Cache, ttl time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: httpClient, url: url, apiKey: apiKey, cache: c, ttl: ttl, logger: logger}
}

type graphResponse[T any] struct {
	Data   T            `json:"data"`
	Errors []graphError `json:"errors"`
}

func query[T any](ctx context.Context, c *Client, q string, vars map[string]any) (T, error) {
	var resp graphResponse[T]
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	if err := c.http.Do(ctx, http.MethodPost, c.url, headers, graphRequest{Query: q, Variables: vars}, &resp); err != nil {
		return resp.Data, fmt.Errorf("subgraph query: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return resp.Data, fmt.Errorf("subgraph query: %s", strings.Join(msgs, "; "))
	}
	return resp.Data, nil
}

type poolData struct {
	Pool *poolResponse `json:"pool"`
}

type ticksData struct {
	Ticks []tickResponse `json:"ticks"`
}

// GetPool loads the pool entity. Tick spacing is derived from the fee tier.
func (c *Client) GetPool(ctx context.Context, pool common.Address) (model.PoolSnapshot, error) {
	return cache.Load(ctx, c.cache, cache.Key("subgraph-pool", pool), c.ttl, func(ctx context.Context) (model.PoolSnapshot, error) {
		vars := map[string]any{"poolAddress": strings.ToLower(pool.Hex())}
		data, err := query[poolData](ctx, c, poolQuery, vars)
		if err != nil {
			return model.PoolSnapshot{}, err
		}
		if data.Pool == nil {
			return model.PoolSnapshot{}, fmt.Errorf("pool %s: %w", pool.Hex(), model.ErrPoolNotFound)
		}
		return toSnapshot(pool, *data.Pool)
	})
}

func toSnapshot(pool common.Address, p poolResponse) (model.PoolSnapshot, error) {
	if p.Tick == nil {
		// pools that were created but never initialized have no tick
		return model.PoolSnapshot{}, fmt.Errorf("pool %s uninitialized: %w", pool.Hex(), model.ErrPoolNotFound)
	}
	fee, err := strconv.ParseUint(p.FeeTier, 10, 32)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("fee tier %q: %w", p.FeeTier, err)
	}
	spacing, ok := liquidity.TickSpacingForFee(uint32(fee))
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("fee tier %d has no known tick spacing: %w", fee, model.ErrInconsistentPool)
	}
	tick, err := strconv.ParseInt(*p.Tick, 10, 32)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("tick %q: %w", *p.Tick, err)
	}
	sqrt, ok := new(big.Int).SetString(p.SqrtPrice, 10)
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("sqrt price %q is not an integer", p.SqrtPrice)
	}
	liq, ok := new(big.Int).SetString(p.Liquidity, 10)
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("liquidity %q is not an integer", p.Liquidity)
	}
	dec0, err := strconv.ParseUint(p.Token0.Decimals, 10, 8)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token0 decimals %q: %w", p.Token0.Decimals, err)
	}
	dec1, err := strconv.ParseUint(p.Token1.Decimals, 10, 8)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("token1 decimals %q: %w", p.Token1.Decimals, err)
	}

	return model.PoolSnapshot{
		Address:        pool,
		Token0:         common.HexToAddress(p.Token0.ID),
		Token1:         common.HexToAddress(p.Token1.ID),
		Token0Decimals: uint8(dec0),
		Token1Decimals: uint8(dec1),
		Token0Symbol:   p.Token0.Symbol,
		Token1Symbol:   p.Token1.Symbol,
		Fee:            uint32(fee),
		TickSpacing:    spacing,
		SqrtPriceX96:   sqrt,
		Tick:           int32(tick),
		Liquidity:      liq,
	}, nil
}

// GetTicks pages through initialized ticks in [min, max] of the two bounds
// and returns them in the direction of travel.
func (c *Client) GetTicks(ctx context.Context, pool model.PoolSnapshot, startTick, endTick int32) ([]model.TickRecord, error) {
	key := cache.Key("subgraph-ticks", pool.Address, startTick, endTick)
	return cache.Load(ctx, c.cache, key, c.ttl, func(ctx context.Context) ([]model.TickRecord, error) {
		lower, upper := min(startTick, endTick), max(startTick, endTick)
		var records []model.TickRecord
		for skip := 0; ; skip += PageSize {
			vars := map[string]any{
				"poolAddress": strings.ToLower(pool.Address.Hex()),
				"startTick":   lower,
				"endTick":     upper,
				"skip":        skip,
			}
			data, err := query[ticksData](ctx, c, ticksQuery, vars)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", err, model.ErrTickFetchFailed)
			}
			for _, t := range data.Ticks {
				rec, err := toTickRecord(t)
				if err != nil {
					return nil, fmt.Errorf("%v: %w", err, model.ErrTickFetchFailed)
				}
				records = append(records, rec)
			}
			if len(data.Ticks) < PageSize {
				break
			}
		}
		c.logger.Debug("subgraph ticks loaded",
			zap.String("pool", pool.Address.Hex()),
			zap.Int32("lower", lower),
			zap.Int32("upper", upper),
			zap.Int("count", len(records)),
		)
		return model.NormalizeTicks(records, startTick > endTick), nil
	})
}

func toTickRecord(t tickResponse) (model.TickRecord, error) {
	idx, err := strconv.ParseInt(t.TickIdx, 10, 32)
	if err != nil {
		return model.TickRecord{}, fmt.Errorf("tick index %q: %w", t.TickIdx, err)
	}
	net, ok := new(big.Int).SetString(t.LiquidityNet, 10)
	if !ok {
		return model.TickRecord{}, fmt.Errorf("liquidityNet %q is not an integer", t.LiquidityNet)
	}
	return model.TickRecord{TickIdx: int32(idx), LiquidityNet: net}, nil
}
