package rates

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvert(t *testing.T) {
	p := Static{Rates: map[string]decimal.Decimal{
		"INR/NPR": decimal.RequireFromString("1.6"),
	}}
	ctx := context.Background()

	t.Run("applies rate and rounds", func(t *testing.T) {
		got, err := Convert(ctx, p, decimal.RequireFromString("1234.565"), "INR", "NPR")
		if err != nil {
			t.Fatal(err)
		}
		if want := decimal.RequireFromString("1975.30"); !got.Equal(want) {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("same currency short-circuits", func(t *testing.T) {
		amount := decimal.RequireFromString("99.999")
		got, err := Convert(ctx, p, amount, "NPR", "NPR")
		if err != nil {
			t.Fatal(err)
		}
		// No rounding: the provider is never consulted.
		if !got.Equal(amount) {
			t.Errorf("got %s, want %s", got, amount)
		}
	})

	t.Run("unknown pair fails", func(t *testing.T) {
		if _, err := Convert(ctx, p, decimal.New(1, 0), "USD", "NPR"); err == nil {
			t.Error("expected error for unknown pair")
		}
	})
}
