package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action is the side of an executed paper trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// TradeRecord is an immutable entry in the trade history. Numeric fields are
// rounded at construction because records are served to the API as-is; the
// ledger keeps its own arithmetic at full precision.
type TradeRecord struct {
	ID             string  `json:"id"`
	Action         Action  `json:"action"`
	Asset          string  `json:"asset"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
	Total          float64 `json:"total"`
	Timestamp      string  `json:"timestamp"`
	PortfolioValue float64 `json:"portfolio_value"`
}

// NewTradeRecord builds a record for a successfully executed trade,
// capturing the portfolio valuation at that instant.
func NewTradeRecord(action Action, pair Pair, quantity, price, total, portfolioValue decimal.Decimal, ts time.Time) TradeRecord {
	return TradeRecord{
		ID:             uuid.NewString(),
		Action:         action,
		Asset:          pair.String(),
		Quantity:       quantity.Round(6).InexactFloat64(),
		Price:          price.Round(2).InexactFloat64(),
		Total:          total.Round(2).InexactFloat64(),
		Timestamp:      ts.Format("2006-01-02 15:04:05"),
		PortfolioValue: portfolioValue.Round(2).InexactFloat64(),
	}
}

// TradeEvent describes a decision-loop execution for logging.
type TradeEvent struct {
	Action     Action
	Pair       Pair
	Amount     decimal.Decimal
	Confidence float64
}

func (t *TradeEvent) String() string {
	return fmt.Sprintf("%s %s for %s USD (confidence %.2f)", t.Action, t.Pair.String(), t.Amount.StringFixed(2), t.Confidence)
}
