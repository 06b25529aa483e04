package vault

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"liquidityDepth/internal/model"
)

type MockVaults struct{ mock.Mock }

func (m *MockVaults) GetVaultData(ctx context.Context, vault common.Address) (model.VaultData, error) {
	args := m.Called(ctx, vault)
	return args.Get(0).(model.VaultData), args.Error(1)
}

type MockPrices struct{ mock.Mock }

func (m *MockPrices) GetTokenPrice(ctx context.Context, token common.Address, platform string) (decimal.Decimal, error) {
	args := m.Called(ctx, token, platform)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func cash(v string) model.VaultData {
	n, _ := new(big.Int).SetString(v, 10)
	return model.VaultData{Cash: n}
}

func TestRegistry(t *testing.T) {
	reg := Registry()
	require.Len(t, reg, 4)
	assert.Equal(t, "USDC", reg[0].Symbol)
	assert.Equal(t, uint8(18), reg[2].Decimals)

	reg[0].Symbol = "changed"
	assert.Equal(t, "USDC", Registry()[0].Symbol)
}

func TestAggregateOneVaultFails(t *testing.T) {
	reg := Registry()
	vaults, prices := &MockVaults{}, &MockPrices{}
	vaults.On("GetVaultData", mock.Anything, reg[0].Vault).Return(cash("1000000000"), nil)
	vaults.On("GetVaultData", mock.Anything, reg[1].Vault).Return(cash("2000000000"), nil)
	vaults.On("GetVaultData", mock.Anything, reg[2].Vault).Return(cash("1500000000000000000"), nil)
	vaults.On("GetVaultData", mock.Anything, reg[3].Vault).Return(model.VaultData{}, model.ErrVaultFetchFailed)
	prices.On("GetTokenPrice", mock.Anything, reg[0].Underlying, "ethereum").Return(decimal.NewFromInt(1), nil)
	prices.On("GetTokenPrice", mock.Anything, reg[1].Underlying, "ethereum").Return(decimal.NewFromInt(1), nil)
	prices.On("GetTokenPrice", mock.Anything, reg[2].Underlying, "ethereum").Return(decimal.NewFromInt(2000), nil)
	prices.On("GetTokenPrice", mock.Anything, reg[3].Underlying, "ethereum").Return(decimal.NewFromInt(60000), nil)

	agg := NewAggregator(reg, vaults, prices, "ethereum", nil).Aggregate(context.Background())

	assert.False(t, agg.Loading)
	assert.Equal(t, "6000", agg.TotalCashUSD.String())
	require.Len(t, agg.Errors, 1)
	assert.Equal(t, "vault", agg.Errors[0].Source)
	assert.Equal(t, "WBTC", agg.Errors[0].Target)
	assert.Nil(t, agg.Vaults[3].CashUSD)
	assert.Equal(t, "1.5", agg.Vaults[2].CashAmount.String())
}

func TestAggregatePriceFailureKeepsCash(t *testing.T) {
	reg := Registry()[:1]
	vaults, prices := &MockVaults{}, &MockPrices{}
	vaults.On("GetVaultData", mock.Anything, reg[0].Vault).Return(cash("2500000"), nil)
	prices.On("GetTokenPrice", mock.Anything, reg[0].Underlying, "ethereum").Return(decimal.Decimal{}, model.ErrPriceUnavailable)

	agg := NewAggregator(reg, vaults, prices, "ethereum", nil).Aggregate(context.Background())
	require.Len(t, agg.Errors, 1)
	assert.Equal(t, "price", agg.Errors[0].Source)
	assert.True(t, errors.Is(agg.Errors[0], model.ErrPriceUnavailable))
	assert.Equal(t, "2.5", agg.Vaults[0].CashAmount.String())
	assert.Nil(t, agg.Vaults[0].CashUSD)
	assert.True(t, agg.TotalCashUSD.IsZero())
}

func TestProgressReportsLoading(t *testing.T) {
	reg := Registry()[:2]
	gate := make(chan struct{})
	vaults, prices := &MockVaults{}, &MockPrices{}
	vaults.On("GetVaultData", mock.Anything, reg[0].Vault).Return(cash("1000000"), nil)
	vaults.On("GetVaultData", mock.Anything, reg[1].Vault).Run(func(mock.Arguments) { <-gate }).Return(cash("3000000"), nil)
	prices.On("GetTokenPrice", mock.Anything, mock.Anything, "ethereum").Return(decimal.NewFromInt(1), nil)

	progress := NewAggregator(reg, vaults, prices, "ethereum", nil).Start(context.Background())

	require.Eventually(t, func() bool {
		return !progress.Snapshot().Vaults[0].Loading
	}, time.Second, 5*time.Millisecond)
	snap := progress.Snapshot()
	assert.True(t, snap.Loading)
	assert.True(t, snap.Vaults[1].Loading)
	assert.Equal(t, "1", snap.TotalCashUSD.String())

	close(gate)
	final := progress.Wait()
	assert.False(t, final.Loading)
	assert.Equal(t, "4", final.TotalCashUSD.String())
}
