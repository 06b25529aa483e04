package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	SourceChain    = "chain"
	SourceSubgraph = "subgraph"
	SourcePostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL   string `validate:"omitempty,url"`
	Platform string `validate:"required"`

	PoolSource string `validate:"oneof=chain subgraph"`
	TickSource string `validate:"oneof=chain subgraph postgres"`

	SubgraphURL     string `validate:"omitempty,url"`
	SubgraphAPIKey  string
	CoinGeckoURL    string `validate:"required,url"`
	CoinGeckoAPIKey string
	PGDSN           string

	CacheTTL     time.Duration `validate:"gt=0"`
	TokenTTL     time.Duration `validate:"gt=0"`
	HTTPTimeout  time.Duration `validate:"gt=0"`
	MaxRetries   int           `validate:"min=1"`
	RetryBackoff time.Duration `validate:"gte=0"`

	TickBatchSize int `validate:"min=1,max=1000"`
	MaxTicks      int `validate:"min=1"`
	Workers       int `validate:"min=1"`

	PriceOverrides map[string]string
	LogLevel       string `validate:"oneof=debug info warn error"`

	Pool         string
	BaseToken    string
	RangePercent float64 `validate:"gte=0,lt=100"`

	Interval  time.Duration `validate:"gte=0"`
	Timeout   time.Duration `validate:"gte=0"`
	MaxRuns   int           `validate:"gte=0"`
	Out       string
	StateFile string

	Listen string `validate:"omitempty,hostname_port"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LIQUIDITY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("platform", "ethereum")
	v.SetDefault("pool-source", SourceChain)
	v.SetDefault("tick-source", SourceChain)
	v.SetDefault("coingecko-url", "https://api.coingecko.com/api/v3")
	v.SetDefault("cache-ttl", 30*time.Second)
	v.SetDefault("token-ttl", time.Hour)
	v.SetDefault("http-timeout", 15*time.Second)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("tick-batch-size", 200)
	v.SetDefault("max-ticks", 20000)
	v.SetDefault("workers", 8)
	v.SetDefault("log-level", "info")
	v.SetDefault("interval", 30*time.Second)
	v.SetDefault("timeout", 20*time.Second)
	v.SetDefault("out", "-")
	v.SetDefault("listen", ":8080")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		Platform:        v.GetString("platform"),
		PoolSource:      strings.ToLower(v.GetString("pool-source")),
		TickSource:      strings.ToLower(v.GetString("tick-source")),
		SubgraphURL:     v.GetString("subgraph-url"),
		SubgraphAPIKey:  v.GetString("subgraph-api-key"),
		CoinGeckoURL:    v.GetString("coingecko-url"),
		CoinGeckoAPIKey: v.GetString("coingecko-api-key"),
		PGDSN:           v.GetString("pg-dsn"),
		CacheTTL:        v.GetDuration("cache-ttl"),
		TokenTTL:        v.GetDuration("token-ttl"),
		HTTPTimeout:     v.GetDuration("http-timeout"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		TickBatchSize:   v.GetInt("tick-batch-size"),
		MaxTicks:        v.GetInt("max-ticks"),
		Workers:         v.GetInt("workers"),
		PriceOverrides:  getStringMap(v, "price-override"),
		LogLevel:        v.GetString("log-level"),
		Pool:            v.GetString("pool"),
		BaseToken:       v.GetString("base"),
		RangePercent:    v.GetFloat64("range"),
		Interval:        v.GetDuration("interval"),
		Timeout:         v.GetDuration("timeout"),
		MaxRuns:         v.GetInt("max-runs"),
		Out:             v.GetString("out"),
		StateFile:       v.GetString("state-file"),
		Listen:          v.GetString("listen"),
	}

	return cfg, nil
}

// Validate checks field constraints and that every selected source is configured.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.usesSource(SourceChain) && c.RPCURL == "" {
		return fmt.Errorf("rpc url is required for the chain source")
	}
	if c.usesSource(SourceSubgraph) && c.SubgraphURL == "" {
		return fmt.Errorf("subgraph url is required for the subgraph source")
	}
	if c.TickSource == SourcePostgres && c.PGDSN == "" {
		return fmt.Errorf("pg dsn is required for the postgres tick source")
	}
	return nil
}

func (c Config) usesSource(name string) bool {
	return c.PoolSource == name || c.TickSource == name
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case []string:
		return parseStringMap(strings.Join(typed, ","))
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
