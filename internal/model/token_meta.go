package model

// Placeholders used when a token contract does not answer name() or symbol().
const (
	UnknownTokenName   = "Unknown Token"
	UnknownTokenSymbol = "???"
)

// DefaultTokenDecimals is substituted when decimals() cannot be read.
const DefaultTokenDecimals uint8 = 18

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address          string `json:"address"`
	Decimals         uint8  `json:"decimals"`
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	DecimalsFallback bool   `json:"decimals_fallback,omitempty"`
}
