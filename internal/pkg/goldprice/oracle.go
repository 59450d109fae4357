package goldprice

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when no price source can produce a quote.
var ErrUnavailable = errors.New("gold price unavailable")

// Oracle supplies the current USD-per-gram gold spot price on demand.
// The plan engine reads it exactly once per activation; injecting a fixed
// oracle makes valuation deterministic in tests.
type Oracle interface {
	CurrentPricePerGram(ctx context.Context) (decimal.Decimal, error)
}

// Fixed is an Oracle that always returns the same price. Used in tests and
// as a configured fallback when no feed is reachable.
type Fixed struct {
	Price decimal.Decimal
}

// NewFixed creates a fixed-price oracle.
func NewFixed(price decimal.Decimal) Fixed {
	return Fixed{Price: price}
}

func (f Fixed) CurrentPricePerGram(_ context.Context) (decimal.Decimal, error) {
	if f.Price.Sign() <= 0 {
		return decimal.Zero, ErrUnavailable
	}
	return f.Price, nil
}
