package entity

// PositionSummary is one held asset in the portfolio summary. Fields are
// rounded for display; the ledger keeps full precision internally.
type PositionSummary struct {
	Asset        string  `json:"asset"`
	Quantity     float64 `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentValue float64 `json:"current_value"`
	PnL          float64 `json:"pnl"`
	PnLPct       float64 `json:"pnl_pct"`
}

// PortfolioSummary is the response body of the portfolio endpoint.
type PortfolioSummary struct {
	CashBalance    float64           `json:"cash_balance"`
	PortfolioValue float64           `json:"portfolio_value"`
	TotalPnL       float64           `json:"total_pnl"`
	PnLPct         float64           `json:"pnl_pct"`
	Positions      []PositionSummary `json:"positions"`
	TotalTrades    int               `json:"total_trades"`
	CurrentQuote   string            `json:"current_quote"`
}

// MarketData is the per-asset entry of the market-data endpoint. Price and
// stats are omitted when the feed is unreachable; the analysis degrades to
// hold in that case.
type MarketData struct {
	CurrentPrice *float64           `json:"current_price,omitempty"`
	Stats        *DailyStatsSummary `json:"stats,omitempty"`
	Analysis     Analysis           `json:"analysis"`
}
