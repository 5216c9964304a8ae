// Package analyzer derives a trade signal from one asset's spot price and
// its daily statistics. The rule set is a deliberate blend of momentum
// (small move with low volatility) and mean reversion (large move read as
// overbought/oversold). Rules are evaluated in order and the first match
// wins; the order must not change.
package analyzer

import (
	"github.com/shopspring/decimal"

	"github.com/scrantonlabs/scranton/internal/entity"
)

var (
	changeBuyThreshold  = decimal.NewFromInt(2)
	changeSellThreshold = decimal.NewFromInt(-2)
	overboughtThreshold = decimal.NewFromInt(5)
	oversoldThreshold   = decimal.NewFromInt(-5)
	lowVolatility       = decimal.NewFromFloat(0.1)
	hundred             = decimal.NewFromInt(100)
)

// Hold is the degraded result used when either input is absent.
func Hold() entity.Analysis {
	return entity.Analysis{Signal: entity.SignalHold, Confidence: 0.0}
}

// Analyze is a pure function of the current price and daily stats. Given
// identical inputs it always returns the identical analysis.
func Analyze(price decimal.Decimal, stats entity.DailyStats) entity.Analysis {
	if price.LessThanOrEqual(decimal.Zero) || stats.Open.LessThanOrEqual(decimal.Zero) {
		return Hold()
	}

	changePct := price.Sub(stats.Open).Div(stats.Open).Mul(hundred)
	volatility := stats.High.Sub(stats.Low).Div(stats.Open)

	signal := entity.SignalHold
	confidence := 0.5

	switch {
	case changePct.GreaterThan(changeBuyThreshold) && volatility.LessThan(lowVolatility):
		signal = entity.SignalBuy
		confidence = 0.7
	case changePct.LessThan(changeSellThreshold) && volatility.LessThan(lowVolatility):
		signal = entity.SignalSell
		confidence = 0.7
	case changePct.GreaterThan(overboughtThreshold):
		signal = entity.SignalSell
		confidence = 0.6
	case changePct.LessThan(oversoldThreshold):
		signal = entity.SignalBuy
		confidence = 0.6
	}

	return entity.Analysis{
		Signal:         signal,
		Confidence:     confidence,
		PriceChangePct: changePct.Round(2).InexactFloat64(),
		Volatility:     volatility.Mul(hundred).Round(2).InexactFloat64(),
		CurrentPrice:   price.InexactFloat64(),
	}
}
