package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityDepth/internal/chain"
)

// Caller is the subset of chain.Client the readers need.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BatchCallContract(ctx context.Context, calls []chain.BatchCall) error
}

var _ Caller = (*chain.Client)(nil)

// methodCall is a packed view call awaiting its batch result.
type methodCall struct {
	method string
	args   []interface{}
}

// callBatch packs methods against target, sends them as one batch and
// unpacks every result. The first failing call aborts with its error.
func callBatch(ctx context.Context, caller Caller, target common.Address, parsed abi.ABI, methods []methodCall) ([][]interface{}, error) {
	calls := make([]chain.BatchCall, len(methods))
	for i, m := range methods {
		data, err := parsed.Pack(m.method, m.args...)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", m.method, err)
		}
		calls[i] = chain.BatchCall{To: target, Data: data}
	}
	if err := caller.BatchCallContract(ctx, calls); err != nil {
		return nil, fmt.Errorf("batch call %s: %w", target.Hex(), err)
	}

	out := make([][]interface{}, len(methods))
	for i, m := range methods {
		if calls[i].Err != nil {
			return nil, fmt.Errorf("call %s: %w", m.method, calls[i].Err)
		}
		if len(calls[i].Result) == 0 {
			return nil, fmt.Errorf("call %s: %w", m.method, errEmptyOutput)
		}
		values, err := parsed.Unpack(m.method, calls[i].Result)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", m.method, err)
		}
		out[i] = values
	}
	return out, nil
}

// callMethod performs a single eth_call and unpacks its result.
func callMethod(ctx context.Context, caller Caller, target common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s: %w", method, errEmptyOutput)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
