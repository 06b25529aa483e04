package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// RetryConfig controls how transient RPC failures are retried.
type RetryConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// BatchCall is one eth_call inside a JSON-RPC batch. Result and Err are
// filled in by BatchCallContract.
type BatchCall struct {
	To     common.Address
	Data   []byte
	Result []byte
	Err    error
}

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	retry     RetryConfig
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, retryCfg RetryConfig) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return NewClientFromRPC(rpcClient, retryCfg), nil
}

// NewClientFromRPC wraps an already connected RPC client.
func NewClientFromRPC(rpcClient *rpc.Client, retryCfg RetryConfig) *Client {
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		retry:     retryCfg,
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// IsRetryableErr reports whether err may succeed on a second attempt.
// Reverts and decoding failures are deterministic.
func IsRetryableErr(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "out of gas") ||
		strings.Contains(msg, "invalid opcode") ||
		strings.Contains(msg, "abi: cannot marshal") {
		return false
	}
	return true
}

func (c *Client) retryOptions(ctx context.Context) []retry.Option {
	attempts := c.retry.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	delay := c.retry.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return []retry.Option{
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRetryableErr),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return retry.DoWithData(func() (*big.Int, error) {
		return c.ethClient.ChainID(ctx)
	}, c.retryOptions(ctx)...)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return retry.DoWithData(func() (uint64, error) {
		return c.ethClient.BlockNumber(ctx)
	}, c.retryOptions(ctx)...)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return retry.DoWithData(func() ([]byte, error) {
		return c.ethClient.CallContract(ctx, msg, blockNumber)
	}, c.retryOptions(ctx)...)
}

// CodeAt returns the deployed bytecode at account.
func (c *Client) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return retry.DoWithData(func() ([]byte, error) {
		return c.ethClient.CodeAt(ctx, account, blockNumber)
	}, c.retryOptions(ctx)...)
}

// BatchCallContract sends calls as a single JSON-RPC batch against the latest
// block. Transport failures are returned; per-call failures land in Err.
// The batch is retried while any element failed for a transient reason.
func (c *Client) BatchCallContract(ctx context.Context, calls []BatchCall) error {
	if len(calls) == 0 {
		return nil
	}
	return retry.Do(func() error {
		results := make([]hexutil.Bytes, len(calls))
		elems := make([]rpc.BatchElem, len(calls))
		for i, call := range calls {
			elems[i] = rpc.BatchElem{
				Method: "eth_call",
				Args: []any{
					map[string]any{"to": call.To, "data": hexutil.Bytes(call.Data)},
					"latest",
				},
				Result: &results[i],
			}
		}
		if err := c.rpcClient.BatchCallContext(ctx, elems); err != nil {
			return err
		}

		var transient error
		for i := range elems {
			calls[i].Result = results[i]
			calls[i].Err = elems[i].Error
			if elems[i].Error != nil && IsRetryableErr(elems[i].Error) && transient == nil {
				transient = fmt.Errorf("batch call %d to %s: %w", i, calls[i].To.Hex(), elems[i].Error)
			}
		}
		return transient
	}, c.retryOptions(ctx)...)
}
