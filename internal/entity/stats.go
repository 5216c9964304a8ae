package entity

import "github.com/shopspring/decimal"

// DailyStats is a crude 24-hour high/low/open/volume estimate for one asset.
// All price sources in this bot synthesize these from the spot price, so
// callers must never treat them as real exchange statistics.
type DailyStats struct {
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume decimal.Decimal
}

// Summary converts the stats to the rounded presentation form.
func (s DailyStats) Summary() DailyStatsSummary {
	return DailyStatsSummary{
		Open:   s.Open.Round(2).InexactFloat64(),
		High:   s.High.Round(2).InexactFloat64(),
		Low:    s.Low.Round(2).InexactFloat64(),
		Volume: s.Volume.InexactFloat64(),
	}
}

// DailyStatsSummary is the JSON shape served by the market-data endpoint.
type DailyStatsSummary struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}
