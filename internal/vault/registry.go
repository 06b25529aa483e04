package vault

import (
	"github.com/ethereum/go-ethereum/common"

	"liquidityDepth/internal/model"
)

var registry = []model.VaultInfo{
	{
		Symbol:     "USDC",
		Underlying: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		Vault:      common.HexToAddress("0xFc6cED6FE2aA08a9bac61edC3FA2A91A10Ac303E"),
		Decimals:   6,
	},
	{
		Symbol:     "USDT",
		Underlying: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
		Vault:      common.HexToAddress("0x9b705F534fc09212071bAD509Ba86a8042BDef10"),
		Decimals:   6,
	},
	{
		Symbol:     "WETH",
		Underlying: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		Vault:      common.HexToAddress("0xc41D25382889B1E484E28c4f9bbDBD6B6117e6b2"),
		Decimals:   18,
	},
	{
		Symbol:     "WBTC",
		Underlying: common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"),
		Vault:      common.HexToAddress("0xCf7834B27D60809BAe3260A3E24B47814809D68c"),
		Decimals:   8,
	},
}

// Registry returns the native vaults on Ethereum mainnet.
func Registry() []model.VaultInfo {
	out := make([]model.VaultInfo, len(registry))
	copy(out, registry)
	return out
}
