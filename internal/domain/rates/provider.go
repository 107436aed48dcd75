// Package rates provides currency conversion against an external rate
// provider, treated as a black box.
package rates

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider returns the conversion rate between two currencies.
type Provider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Convert applies the provider's rate to an amount, rounded to 2 places.
func Convert(ctx context.Context, p Provider, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rate, err := p.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate %s->%s: %w", from, to, err)
	}
	return amount.Mul(rate).Round(2), nil
}

// Static is a fixed-rate provider for tests and offline use.
type Static struct {
	Rates map[string]decimal.Decimal // key "FROM/TO"
}

// Rate implements Provider.
func (s Static) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := s.Rates[from+"/"+to]; ok {
		return r, nil
	}
	return decimal.Zero, fmt.Errorf("no rate for %s/%s", from, to)
}
