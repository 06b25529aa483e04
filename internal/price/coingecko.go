package price

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/httpclient"
	"liquidityDepth/internal/model"
)

// DefaultPlatform is the CoinGecko asset platform for Ethereum mainnet.
const DefaultPlatform = "ethereum"

// Source resolves a token's USD spot price.
type Source interface {
	GetTokenPrice(ctx context.Context, token common.Address, platform string) (decimal.Decimal, error)
}

type contractResponse struct {
	MarketData struct {
		CurrentPrice struct {
			USD *float64 `json:"usd"`
		} `json:"current_price"`
	} `json:"market_data"`
}

// CoinGecko reads prices from the /coins/{platform}/contract/{address} endpoint.
type CoinGecko struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
	cache   *cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
}

func NewCoinGecko(httpClient *httpclient.Client, baseURL, apiKey string, c *cache.Cache, ttl time.Duration, logger *zap.Logger) *CoinGecko {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoinGecko{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cache:   c,
		ttl:     ttl,
		logger:  logger,
	}
}

func (c *CoinGecko) GetTokenPrice(ctx context.Context, token common.Address, platform string) (decimal.Decimal, error) {
	if platform == "" {
		platform = DefaultPlatform
	}
	key := cache.Key("price", platform, token)
	return cache.Load(ctx, c.cache, key, c.ttl, func(ctx context.Context) (decimal.Decimal, error) {
		url := fmt.Sprintf("%s/coins/%s/contract/%s", c.baseURL, platform, strings.ToLower(token.Hex()))
		var resp contractResponse
		err := c.http.Do(ctx, http.MethodGet, url, map[string]string{"x-cg-demo-api-key": c.apiKey}, nil, &resp)
		if err != nil {
			var se *httpclient.StatusError
			if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
				return decimal.Decimal{}, fmt.Errorf("coingecko %s: %w", token.Hex(), model.ErrPriceUnavailable)
			}
			return decimal.Decimal{}, fmt.Errorf("coingecko %s: %v: %w", token.Hex(), err, model.ErrPriceUnavailable)
		}
		usd := resp.MarketData.CurrentPrice.USD
		if usd == nil || *usd <= 0 {
			return decimal.Decimal{}, fmt.Errorf("coingecko %s: no usd price: %w", token.Hex(), model.ErrPriceUnavailable)
		}
		c.logger.Debug("price loaded", zap.String("token", token.Hex()), zap.Float64("usd", *usd))
		return decimal.NewFromFloat(*usd), nil
	})
}
