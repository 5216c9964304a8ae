package entity

// Signal is a categorical trade recommendation.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Analysis is the ephemeral result of evaluating one asset: the signal, a
// confidence score in [0,1], and the raw inputs the signal was derived from.
type Analysis struct {
	Signal         Signal  `json:"signal"`
	Confidence     float64 `json:"confidence"`
	PriceChangePct float64 `json:"price_change_pct,omitempty"`
	Volatility     float64 `json:"volatility,omitempty"`
	CurrentPrice   float64 `json:"current_price,omitempty"`
}
