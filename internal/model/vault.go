package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// VaultInfo is a registry entry for one native lending vault.
type VaultInfo struct {
	Symbol     string         `json:"symbol"`
	Underlying common.Address `json:"underlying"`
	Vault      common.Address `json:"vault"`
	Decimals   uint8          `json:"decimals"`
}

// VaultData is the on-chain view of a vault read in a single batch.
type VaultData struct {
	Address       common.Address
	Name          string
	Symbol        string
	Decimals      uint8
	Underlying    common.Address
	Cash          *big.Int
	TotalBorrows  *big.Int
	TotalReserves *big.Int
	ExchangeRate  *big.Int
}

// VaultLiquidity is the per-vault line of an aggregate.
type VaultLiquidity struct {
	VaultInfo
	Cash       string           `json:"cash,omitempty"`
	CashAmount *decimal.Decimal `json:"cash_amount"`
	PriceUSD   *decimal.Decimal `json:"price_usd"`
	CashUSD    *decimal.Decimal `json:"cash_usd"`
	Loading    bool             `json:"loading"`
	Err        *SourceError     `json:"error,omitempty"`
}

// VaultAggregate sums idle cash across the registry.
type VaultAggregate struct {
	Vaults       []VaultLiquidity `json:"vaults"`
	TotalCashUSD decimal.Decimal  `json:"total_cash_usd"`
	Loading      bool             `json:"loading"`
	Errors       []SourceError    `json:"errors,omitempty"`
}
