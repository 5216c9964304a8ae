package entity

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Position represents a held quantity of an asset and its average cost basis.
// A position only exists while Quantity is positive; the ledger removes it
// once it is fully sold.
type Position struct {
	Quantity decimal.Decimal
	AvgPrice decimal.Decimal
}

// NewPosition constructs a position opened by a first buy.
func NewPosition(quantity, price decimal.Decimal) (*Position, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("position quantity must be greater than zero")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("position price must be greater than zero")
	}
	return &Position{Quantity: quantity, AvgPrice: price}, nil
}

// AddLot folds an additional purchase into the position, recomputing the
// weighted average cost: (old_qty*old_avg + cost) / (old_qty + qty).
func (p *Position) AddLot(quantity, cost decimal.Decimal) {
	newQuantity := p.Quantity.Add(quantity)
	if newQuantity.LessThanOrEqual(decimal.Zero) {
		return
	}
	p.AvgPrice = p.Quantity.Mul(p.AvgPrice).Add(cost).Div(newQuantity)
	p.Quantity = newQuantity
}

// Value returns the market value of the position at the given price.
func (p *Position) Value(price decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return p.Quantity.Mul(price)
}

// PnL returns unrealized profit and loss at the given market price.
func (p *Position) PnL(price decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return p.Quantity.Mul(price).Sub(p.Quantity.Mul(p.AvgPrice))
}

// CostBasis returns quantity times average cost.
func (p *Position) CostBasis() decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return p.Quantity.Mul(p.AvgPrice)
}
