// Package ledger owns the paper-trading portfolio: cash balance, per-asset
// positions and the bounded trade history. Mutation is serialized behind a
// single writer lock held only for in-memory state; price lookups for
// valuation run against a snapshot outside any lock, so readers are never
// stalled by a slow feed and cash/position pairs are never observed torn.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scrantonlabs/scranton/internal/entity"
)

// historyCap bounds the trade history; oldest records are evicted first.
const historyCap = 50

var (
	// ErrInsufficientFunds is returned when a buy exceeds the cash balance.
	ErrInsufficientFunds = errors.New("insufficient cash balance")
	// ErrNoPosition is returned when selling an asset that is not held.
	ErrNoPosition = errors.New("no position held")
)

// Pricer supplies the current spot price for valuation and execution.
type Pricer interface {
	Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error)
}

// Ledger tracks cash, positions and trade history for the process lifetime.
// State is created once at startup; a restart resets it.
type Ledger struct {
	mu             sync.RWMutex
	pricer         Pricer
	logger         *zap.Logger
	initialBalance decimal.Decimal
	cash           decimal.Decimal
	positions      map[string]*entity.Position
	history        []entity.TradeRecord
	now            func() time.Time
}

// New creates a ledger holding the configured initial cash balance.
func New(initialBalance decimal.Decimal, pricer Pricer, logger *zap.Logger) (*Ledger, error) {
	if pricer == nil {
		return nil, errors.New("pricer is required")
	}
	if initialBalance.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("initial balance must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		pricer:         pricer,
		logger:         logger,
		initialBalance: initialBalance,
		cash:           initialBalance,
		positions:      make(map[string]*entity.Position),
		now:            time.Now,
	}, nil
}

// Buy spends usdAmount of cash on the asset at the current market price.
// It fails without state change when the price is unavailable or the amount
// exceeds the cash balance. Cash is reduced by the re-derived notional
// quantity*price, not the requested amount, to avoid rounding drift.
func (l *Ledger) Buy(ctx context.Context, pair entity.Pair, usdAmount decimal.Decimal) error {
	if usdAmount.LessThanOrEqual(decimal.Zero) {
		return errors.Errorf("buy amount must be positive, got %s", usdAmount.String())
	}

	price, err := l.pricer.Price(ctx, pair)
	if err != nil {
		return errors.Wrapf(err, "buy %s", pair.String())
	}

	l.mu.Lock()

	if usdAmount.GreaterThan(l.cash) {
		have := l.cash
		l.mu.Unlock()
		return errors.Wrapf(ErrInsufficientFunds, "have %s, want %s", have.StringFixed(2), usdAmount.StringFixed(2))
	}

	quantity := usdAmount.Div(price)
	cost := quantity.Mul(price)
	l.cash = l.cash.Sub(cost)

	if pos, ok := l.positions[pair.String()]; ok {
		pos.AddLot(quantity, cost)
	} else {
		pos, err := entity.NewPosition(quantity, price)
		if err != nil {
			// roll back the cash movement, the trade did not happen
			l.cash = l.cash.Add(cost)
			l.mu.Unlock()
			return errors.Wrap(err, "open position")
		}
		l.positions[pair.String()] = pos
	}

	cash := l.cash
	positions := l.clonePositionsLocked()
	l.mu.Unlock()

	l.record(ctx, entity.ActionBuy, pair, quantity, price, cost, cash, positions)
	l.logger.Info("buy executed",
		zap.String("pair", pair.String()),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("cost", cost.StringFixed(2)),
		zap.String("cash", cash.StringFixed(2)))
	return nil
}

// Sell liquidates up to usdAmount worth of the held position at the current
// market price. The quantity is clamped to the held amount, so a request
// larger than the position liquidates it entirely. It fails without state
// change when no position exists or the price is unavailable.
func (l *Ledger) Sell(ctx context.Context, pair entity.Pair, usdAmount decimal.Decimal) error {
	if usdAmount.LessThanOrEqual(decimal.Zero) {
		return errors.Errorf("sell amount must be positive, got %s", usdAmount.String())
	}

	l.mu.RLock()
	_, held := l.positions[pair.String()]
	l.mu.RUnlock()
	if !held {
		return errors.Wrap(ErrNoPosition, pair.String())
	}

	price, err := l.pricer.Price(ctx, pair)
	if err != nil {
		return errors.Wrapf(err, "sell %s", pair.String())
	}

	l.mu.Lock()

	// the position may have been liquidated while the price was in flight
	pos, ok := l.positions[pair.String()]
	if !ok {
		l.mu.Unlock()
		return errors.Wrap(ErrNoPosition, pair.String())
	}

	quantity := usdAmount.Div(price)
	if quantity.GreaterThan(pos.Quantity) {
		quantity = pos.Quantity
	}

	proceeds := quantity.Mul(price)
	l.cash = l.cash.Add(proceeds)

	pos.Quantity = pos.Quantity.Sub(quantity)
	if pos.Quantity.LessThanOrEqual(decimal.Zero) {
		delete(l.positions, pair.String())
	}

	cash := l.cash
	positions := l.clonePositionsLocked()
	l.mu.Unlock()

	l.record(ctx, entity.ActionSell, pair, quantity, price, proceeds, cash, positions)
	l.logger.Info("sell executed",
		zap.String("pair", pair.String()),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("proceeds", proceeds.StringFixed(2)),
		zap.String("cash", cash.StringFixed(2)))
	return nil
}

// record captures the trade with the portfolio valuation of the passed
// snapshot, evicting the oldest record past the cap. The valuation's price
// lookups run before the lock is taken.
func (l *Ledger) record(ctx context.Context, action entity.Action, pair entity.Pair, quantity, price, total, cash decimal.Decimal, positions map[string]entity.Position) {
	value := l.valuation(ctx, cash, positions)
	rec := entity.NewTradeRecord(action, pair, quantity, price, total, value, l.now())

	l.mu.Lock()
	l.history = append(l.history, rec)
	if len(l.history) > historyCap {
		l.history = l.history[len(l.history)-historyCap:]
	}
	l.mu.Unlock()
}

// clonePositionsLocked copies the position map by value. Caller holds at
// least a read lock.
func (l *Ledger) clonePositionsLocked() map[string]entity.Position {
	out := make(map[string]entity.Position, len(l.positions))
	for asset, pos := range l.positions {
		out[asset] = *pos
	}
	return out
}

// snapshot returns the cash balance and a copy of the positions.
func (l *Ledger) snapshot() (decimal.Decimal, map[string]entity.Position) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash, l.clonePositionsLocked()
}

// valuation computes cash plus the market value of the snapshotted
// positions. An asset whose price is unavailable contributes zero for this
// cycle. No lock is held during the price lookups.
func (l *Ledger) valuation(ctx context.Context, cash decimal.Decimal, positions map[string]entity.Position) decimal.Decimal {
	total := cash
	for asset, pos := range positions {
		pair, err := entity.PairFromString(asset)
		if err != nil {
			continue
		}
		price, err := l.pricer.Price(ctx, pair)
		if err != nil {
			l.logger.Debug("skipping position in valuation", zap.String("asset", asset), zap.Error(err))
			continue
		}
		total = total.Add(pos.Value(price))
	}
	return total
}

// PortfolioValue returns cash plus the live value of all positions.
func (l *Ledger) PortfolioValue(ctx context.Context) decimal.Decimal {
	cash, positions := l.snapshot()
	return l.valuation(ctx, cash, positions)
}

// PositionValue returns the current market value of one position, or zero
// when the asset is not held or its price is unavailable.
func (l *Ledger) PositionValue(ctx context.Context, pair entity.Pair) decimal.Decimal {
	l.mu.RLock()
	pos, ok := l.positions[pair.String()]
	if !ok {
		l.mu.RUnlock()
		return decimal.Zero
	}
	held := *pos
	l.mu.RUnlock()

	price, err := l.pricer.Price(ctx, pair)
	if err != nil {
		return decimal.Zero
	}
	return held.Value(price)
}

// UnrealizedPnL returns quantity*price - quantity*avg_cost for one position.
func (l *Ledger) UnrealizedPnL(ctx context.Context, pair entity.Pair) decimal.Decimal {
	l.mu.RLock()
	pos, ok := l.positions[pair.String()]
	if !ok {
		l.mu.RUnlock()
		return decimal.Zero
	}
	held := *pos
	l.mu.RUnlock()

	price, err := l.pricer.Price(ctx, pair)
	if err != nil {
		return decimal.Zero
	}
	return held.PnL(price)
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

// Trades returns a copy of the history, oldest first.
func (l *Ledger) Trades() []entity.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]entity.TradeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// Summary builds the rounded portfolio summary served over HTTP. Rounding
// happens only here, at the presentation boundary; the price lookups run
// against a snapshot with no lock held.
func (l *Ledger) Summary(ctx context.Context) entity.PortfolioSummary {
	l.mu.RLock()
	cash := l.cash
	positionsByAsset := l.clonePositionsLocked()
	tradeCount := len(l.history)
	l.mu.RUnlock()

	portfolioValue := l.valuation(ctx, cash, positionsByAsset)
	totalPnL := portfolioValue.Sub(l.initialBalance)
	pnlPct := totalPnL.Div(l.initialBalance).Mul(decimal.NewFromInt(100))

	assets := make([]string, 0, len(positionsByAsset))
	for asset := range positionsByAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	positions := make([]entity.PositionSummary, 0, len(assets))
	for _, asset := range assets {
		pos := positionsByAsset[asset]
		summary := entity.PositionSummary{
			Asset:    asset,
			Quantity: pos.Quantity.Round(6).InexactFloat64(),
			AvgPrice: pos.AvgPrice.Round(2).InexactFloat64(),
		}
		pair, err := entity.PairFromString(asset)
		if err == nil {
			if price, err := l.pricer.Price(ctx, pair); err == nil {
				pnl := pos.PnL(price)
				summary.CurrentValue = pos.Value(price).Round(2).InexactFloat64()
				summary.PnL = pnl.Round(2).InexactFloat64()
				if cost := pos.CostBasis(); cost.IsPositive() {
					summary.PnLPct = pnl.Div(cost).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
				}
			}
		}
		positions = append(positions, summary)
	}

	return entity.PortfolioSummary{
		CashBalance:    cash.Round(2).InexactFloat64(),
		PortfolioValue: portfolioValue.Round(2).InexactFloat64(),
		TotalPnL:       totalPnL.Round(2).InexactFloat64(),
		PnLPct:         pnlPct.Round(2).InexactFloat64(),
		Positions:      positions,
		TotalTrades:    tradeCount,
	}
}
