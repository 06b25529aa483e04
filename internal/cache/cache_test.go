package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCaseInsensitive(t *testing.T) {
	addr := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	a := Key("pool", addr)
	b := Key("pool", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	assert.Equal(t, a, b)
	assert.NotEqual(t, Key("ticks", addr, 1, 2), Key("ticks", addr, 1, 3))
}

func TestLoadCachesSuccess(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Load(context.Background(), c, "k", 0, fetch)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	boom := errors.New("boom")
	fetch := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok", nil
	}

	_, err := Load(context.Background(), c, "k", 0, fetch)
	require.ErrorIs(t, err, boom)

	v, err := Load(context.Background(), c, "k", 0, fetch)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestLoadExpires(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := Load(context.Background(), c, "k", 20*time.Millisecond, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(40 * time.Millisecond)
	v, err = Load(context.Background(), c, "k", 20*time.Millisecond, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestNilCacheFetches(t *testing.T) {
	var c *Cache
	v, err := Load(context.Background(), c, "k", 0, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
