package price

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Overrides answers pinned prices locally and defers everything else to next.
type Overrides struct {
	pinned map[common.Address]decimal.Decimal
	next   Source
}

func NewOverrides(pinned map[common.Address]decimal.Decimal, next Source) *Overrides {
	if pinned == nil {
		pinned = map[common.Address]decimal.Decimal{}
	}
	return &Overrides{pinned: pinned, next: next}
}

// ParseOverrides converts token=price config pairs.
func ParseOverrides(raw map[string]string) (map[common.Address]decimal.Decimal, error) {
	out := make(map[common.Address]decimal.Decimal, len(raw))
	for token, value := range raw {
		if !common.IsHexAddress(token) {
			return nil, fmt.Errorf("price override token %q is not an address", token)
		}
		price, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("price override %s=%q: %w", token, value, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("price override %s must be positive", token)
		}
		out[common.HexToAddress(token)] = price
	}
	return out, nil
}

func (o *Overrides) GetTokenPrice(ctx context.Context, token common.Address, platform string) (decimal.Decimal, error) {
	if p, ok := o.pinned[token]; ok {
		return p, nil
	}
	if o.next == nil {
		return decimal.Decimal{}, fmt.Errorf("no price source for %s", token.Hex())
	}
	return o.next.GetTokenPrice(ctx, token, platform)
}
