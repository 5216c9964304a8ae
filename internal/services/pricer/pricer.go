// Package pricer supplies spot prices and synthetic daily statistics for the
// configured trading pairs. Live sources (Coinbase, Binance, Bybit) read
// public market endpoints; the simulator applies a random walk and needs no
// network at all.
package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrantonlabs/scranton/internal/entity"
)

// ErrPriceUnavailable marks an unreachable or unknown feed. Callers must
// treat it as "skip this asset this cycle", never as a zero price.
var ErrPriceUnavailable = errors.New("price unavailable")

// MarketSource is the contract shared by the live feeds and the simulator.
type MarketSource interface {
	// Price returns the current spot price for the pair, or an error
	// wrapping ErrPriceUnavailable.
	Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error)
	// DailyStats returns a 24h open/high/low/volume estimate derived from
	// the spot price.
	DailyStats(ctx context.Context, pair entity.Pair) (entity.DailyStats, error)
	// Pairs returns the ordered list of tradable pairs.
	Pairs() []entity.Pair
}

var (
	statOpenFactor = decimal.NewFromFloat(0.98)
	statHighFactor = decimal.NewFromFloat(1.05)
	statLowFactor  = decimal.NewFromFloat(0.95)
	statVolume     = decimal.NewFromInt(1000000)
)

// syntheticStats derives placeholder daily statistics from a spot price.
// None of the wired venues expose a free 24h stat endpoint, so every source
// uses the same estimate the original feed did.
func syntheticStats(price decimal.Decimal) entity.DailyStats {
	return entity.DailyStats{
		Open:   price.Mul(statOpenFactor),
		High:   price.Mul(statHighFactor),
		Low:    price.Mul(statLowFactor),
		Volume: statVolume,
	}
}
