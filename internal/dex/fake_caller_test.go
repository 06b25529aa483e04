package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityDepth/internal/chain"
)

type responder func(args []interface{}) ([]byte, error)

type fakeContract struct {
	abi     abi.ABI
	methods map[string]responder
}

// fakeCaller answers eth_calls from per-contract responders. Calls to an
// address without a contract return empty output, like calling an EOA.
type fakeCaller struct {
	mu        sync.Mutex
	contracts map[common.Address]*fakeContract
	batches   int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{contracts: make(map[common.Address]*fakeContract)}
}

func (f *fakeCaller) add(addr common.Address, parsed abi.ABI, methods map[string]responder) {
	f.contracts[addr] = &fakeContract{abi: parsed, methods: methods}
}

func (f *fakeCaller) dispatch(to common.Address, data []byte) ([]byte, error) {
	c, ok := f.contracts[to]
	if !ok {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, errors.New("execution reverted: short calldata")
	}
	m, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("execution reverted: %v", err)
	}
	fn, ok := c.methods[m.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	return fn(args)
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return f.dispatch(*msg.To, msg.Data)
}

func (f *fakeCaller) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	if _, ok := f.contracts[account]; ok {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

func (f *fakeCaller) BatchCallContract(ctx context.Context, calls []chain.BatchCall) error {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()
	for i := range calls {
		calls[i].Result, calls[i].Err = f.dispatch(calls[i].To, calls[i].Data)
	}
	return nil
}

func returns(parsed abi.ABI, method string, values ...interface{}) responder {
	return func([]interface{}) ([]byte, error) {
		return parsed.Methods[method].Outputs.Pack(values...)
	}
}

func reverts() responder {
	return func([]interface{}) ([]byte, error) {
		return nil, errors.New("execution reverted")
	}
}

func mustABI(parsed abi.ABI, err error) abi.ABI {
	if err != nil {
		panic(err)
	}
	return parsed
}

func addToken(f *fakeCaller, addr common.Address, name, symbol string, decimals uint8) {
	parsed := mustABI(erc20ABIStringInstance())
	f.add(addr, parsed, map[string]responder{
		"name":     returns(parsed, "name", name),
		"symbol":   returns(parsed, "symbol", symbol),
		"decimals": returns(parsed, "decimals", decimals),
	})
}
