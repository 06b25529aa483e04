package chain

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEth struct {
	calls    atomic.Int32
	failOnce atomic.Bool
}

func (f *fakeEth) Call(ctx context.Context, msg map[string]any, block string) (hexutil.Bytes, error) {
	f.calls.Add(1)
	if f.failOnce.CompareAndSwap(true, false) {
		return nil, errors.New("rate limited")
	}
	data, _ := msg["data"].(string)
	if data == "0xdead" {
		return nil, errors.New("execution reverted")
	}
	raw, err := hexutil.Decode(data)
	if err != nil {
		return nil, err
	}
	return append(raw, 0x01), nil
}

func newTestClient(t *testing.T, svc *fakeEth) *Client {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	t.Cleanup(server.Stop)
	client := NewClientFromRPC(rpc.DialInProc(server), RetryConfig{MaxRetries: 2, RetryBackoff: time.Millisecond})
	t.Cleanup(client.Close)
	return client
}

func TestBatchCallContract(t *testing.T) {
	svc := &fakeEth{}
	client := newTestClient(t, svc)

	calls := []BatchCall{
		{To: common.HexToAddress("0x01"), Data: []byte{0xaa}},
		{To: common.HexToAddress("0x02"), Data: []byte{0xde, 0xad}},
	}
	require.NoError(t, client.BatchCallContract(context.Background(), calls))

	assert.Equal(t, []byte{0xaa, 0x01}, calls[0].Result)
	assert.NoError(t, calls[0].Err)
	require.Error(t, calls[1].Err)
	assert.Contains(t, calls[1].Err.Error(), "execution reverted")
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestBatchCallContractRetriesTransient(t *testing.T) {
	svc := &fakeEth{}
	svc.failOnce.Store(true)
	client := newTestClient(t, svc)

	calls := []BatchCall{{To: common.HexToAddress("0x01"), Data: []byte{0xbb}}}
	require.NoError(t, client.BatchCallContract(context.Background(), calls))
	assert.NoError(t, calls[0].Err)
	assert.Equal(t, []byte{0xbb, 0x01}, calls[0].Result)
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestIsRetryableErr(t *testing.T) {
	assert.False(t, IsRetryableErr(nil))
	assert.False(t, IsRetryableErr(errors.New("execution reverted: STF")))
	assert.False(t, IsRetryableErr(context.Canceled))
	assert.True(t, IsRetryableErr(errors.New("429 too many requests")))
}
