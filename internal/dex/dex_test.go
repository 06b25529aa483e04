package dex

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidityDepth/internal/cache"
	"liquidityDepth/internal/model"
)

var (
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	poolAddr = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
)

func TestSplitTickRange(t *testing.T) {
	got, err := splitTickRange(-120, 120, 60, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TickRange{
		{From: -120, To: -60},
		{From: 0, To: 60},
		{From: 120, To: 120},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}

	got, err = splitTickRange(60, 60, 60, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []TickRange{{From: 60, To: 60}}) {
		t.Fatalf("single range mismatch: %+v", got)
	}

	if _, err := splitTickRange(10, 9, 1, 1); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := splitTickRange(1, 10, 1, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestTokenReaderFallbacks(t *testing.T) {
	f := newFakeCaller()
	token := common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
	b32 := mustABI(erc20ABIBytes32Instance())
	var sym [32]byte
	copy(sym[:], "MKR")
	f.add(token, b32, map[string]responder{
		"symbol":   returns(b32, "symbol", sym),
		"decimals": reverts(),
	})

	reader := NewTokenReader(f, nil, 0, nil)
	meta, err := reader.GetTokenInfo(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "MKR", meta.Symbol)
	assert.Equal(t, model.UnknownTokenName, meta.Name)
	assert.Equal(t, uint8(18), meta.Decimals)
	assert.True(t, meta.DecimalsFallback)
}

func TestTokenReaderUnknownToken(t *testing.T) {
	reader := NewTokenReader(newFakeCaller(), nil, 0, nil)
	_, err := reader.GetTokenInfo(context.Background(), common.HexToAddress("0x01"))
	require.ErrorIs(t, err, model.ErrUnknownToken)
}

func TestTokenReaderCached(t *testing.T) {
	f := newFakeCaller()
	addToken(f, usdcAddr, "USD Coin", "USDC", 6)
	reader := NewTokenReader(f, cache.New(time.Hour), time.Hour, nil)

	meta, err := reader.GetTokenInfo(context.Background(), usdcAddr)
	require.NoError(t, err)
	assert.Equal(t, "USDC", meta.Symbol)
	assert.Equal(t, uint8(6), meta.Decimals)
	assert.False(t, meta.DecimalsFallback)

	delete(f.contracts, usdcAddr)
	again, err := reader.GetTokenInfo(context.Background(), usdcAddr)
	require.NoError(t, err)
	assert.Equal(t, meta, again)
}

func addPool(f *fakeCaller, sqrt *big.Int, tick int64, liquidity *big.Int) {
	parsed := mustABI(V3PoolABI())
	f.add(poolAddr, parsed, map[string]responder{
		"token0":      returns(parsed, "token0", usdcAddr),
		"token1":      returns(parsed, "token1", wethAddr),
		"fee":         returns(parsed, "fee", big.NewInt(500)),
		"tickSpacing": returns(parsed, "tickSpacing", big.NewInt(10)),
		"slot0":       returns(parsed, "slot0", sqrt, big.NewInt(tick), uint16(1), uint16(1), uint16(1), uint8(0), true),
		"liquidity":   returns(parsed, "liquidity", liquidity),
	})
}

func TestPoolReader(t *testing.T) {
	f := newFakeCaller()
	addToken(f, usdcAddr, "USD Coin", "USDC", 6)
	addToken(f, wethAddr, "Wrapped Ether", "WETH", 18)
	sqrt, _ := new(big.Int).SetString("1771595571142957166518320255467520", 10)
	addPool(f, sqrt, 201240, big.NewInt(5e18))

	reader := NewPoolReader(f, NewTokenReader(f, nil, 0, nil), nil, 0, nil)
	snap, err := reader.GetPool(context.Background(), poolAddr)
	require.NoError(t, err)

	assert.Equal(t, usdcAddr, snap.Token0)
	assert.Equal(t, wethAddr, snap.Token1)
	assert.Equal(t, uint8(6), snap.Token0Decimals)
	assert.Equal(t, uint8(18), snap.Token1Decimals)
	assert.Equal(t, "WETH", snap.Token1Symbol)
	assert.Equal(t, uint32(500), snap.Fee)
	assert.Equal(t, int32(10), snap.TickSpacing)
	assert.Equal(t, int32(201240), snap.Tick)
	assert.Equal(t, 0, snap.SqrtPriceX96.Cmp(sqrt))
	assert.Equal(t, "5000000000000000000", snap.Liquidity.String())
	assert.Equal(t, 1, f.batches)
}

func TestPoolReaderNotFound(t *testing.T) {
	reader := NewPoolReader(newFakeCaller(), nil, nil, 0, nil)
	_, err := reader.GetPool(context.Background(), poolAddr)
	require.ErrorIs(t, err, model.ErrPoolNotFound)
}

func addTicks(f *fakeCaller, initialized map[int64]int64, failAt int64) {
	parsed := mustABI(V3PoolABI())
	methods := f.contracts[poolAddr].methods
	methods["ticks"] = func(args []interface{}) ([]byte, error) {
		tick := args[0].(*big.Int).Int64()
		if tick == failAt {
			return nil, errors.New("execution reverted")
		}
		net, ok := initialized[tick]
		gross := big.NewInt(0)
		if ok {
			gross = new(big.Int).Abs(big.NewInt(net))
		}
		return parsed.Methods["ticks"].Outputs.Pack(
			gross, big.NewInt(net), big.NewInt(0), big.NewInt(0),
			big.NewInt(0), big.NewInt(0), uint32(0), ok,
		)
	}
}

func TestTickReader(t *testing.T) {
	f := newFakeCaller()
	addPool(f, big.NewInt(1), 0, big.NewInt(0))
	addTicks(f, map[int64]int64{-60: 100, 60: -40, 600: 7}, 1<<30)

	reader, err := NewTickReader(f, 2, 2, 100, nil, 0, nil)
	require.NoError(t, err)
	defer reader.Close()

	pool := model.PoolSnapshot{Address: poolAddr, TickSpacing: 60}
	up, err := reader.GetTicks(context.Background(), pool, -120, 120)
	require.NoError(t, err)
	require.Len(t, up, 2)
	assert.Equal(t, int32(-60), up[0].TickIdx)
	assert.Equal(t, "100", up[0].LiquidityNet.String())
	assert.Equal(t, int32(60), up[1].TickIdx)
	assert.Equal(t, 3, f.batches)

	down, err := reader.GetTicks(context.Background(), pool, 120, -120)
	require.NoError(t, err)
	require.Len(t, down, 2)
	assert.Equal(t, int32(60), down[0].TickIdx)
	assert.Equal(t, int32(-60), down[1].TickIdx)
}

func TestTickReaderLimits(t *testing.T) {
	f := newFakeCaller()
	addPool(f, big.NewInt(1), 0, big.NewInt(0))
	addTicks(f, map[int64]int64{}, 0)

	reader, err := NewTickReader(f, 2, 2, 3, nil, 0, nil)
	require.NoError(t, err)
	defer reader.Close()

	pool := model.PoolSnapshot{Address: poolAddr, TickSpacing: 60}
	_, err = reader.GetTicks(context.Background(), pool, -600, 600)
	require.ErrorIs(t, err, model.ErrTickWindowTooWide)

	_, err = reader.GetTicks(context.Background(), pool, -60, 60)
	require.ErrorIs(t, err, model.ErrTickFetchFailed)
}

func TestVaultReader(t *testing.T) {
	f := newFakeCaller()
	vault := common.HexToAddress("0xFc6cED6FE2aA08a9bac61edC3FA2A91A10Ac303E")
	parsed := mustABI(VaultABI())
	f.add(vault, parsed, map[string]responder{
		"name":               returns(parsed, "name", "Native USDC"),
		"symbol":             returns(parsed, "symbol", "nUSDC"),
		"decimals":           returns(parsed, "decimals", uint8(8)),
		"underlying":         returns(parsed, "underlying", usdcAddr),
		"getCash":            returns(parsed, "getCash", big.NewInt(1_500_000_000)),
		"totalBorrows":       returns(parsed, "totalBorrows", big.NewInt(42)),
		"totalReserves":      returns(parsed, "totalReserves", big.NewInt(7)),
		"exchangeRateStored": returns(parsed, "exchangeRateStored", big.NewInt(200000000000000)),
	})

	reader := NewVaultReader(f, nil, 0, nil)
	data, err := reader.GetVaultData(context.Background(), vault)
	require.NoError(t, err)
	assert.Equal(t, "nUSDC", data.Symbol)
	assert.Equal(t, usdcAddr, data.Underlying)
	assert.Equal(t, "1500000000", data.Cash.String())
	assert.Equal(t, 1, f.batches)

	f.contracts[vault].methods["getCash"] = reverts()
	_, err = reader.GetVaultData(context.Background(), vault)
	require.ErrorIs(t, err, model.ErrVaultFetchFailed)
}
