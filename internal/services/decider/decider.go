// Package decider runs the trading decision loop: a two-state machine that
// waits out a cooldown, scans every tradable pair for the highest-confidence
// signal, sizes a trade and asks the ledger to execute it.
package decider

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scrantonlabs/scranton/internal/entity"
	"github.com/scrantonlabs/scranton/internal/metrics"
	"github.com/scrantonlabs/scranton/internal/services/analyzer"
)

// confidenceFloor filters signals; only strictly greater qualifies.
const confidenceFloor = 0.6

// MarketSource supplies the inputs of the signal analyzer.
type MarketSource interface {
	Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error)
	DailyStats(ctx context.Context, pair entity.Pair) (entity.DailyStats, error)
}

// Executor is the portfolio side of a decision, implemented by the ledger.
type Executor interface {
	Buy(ctx context.Context, pair entity.Pair, usdAmount decimal.Decimal) error
	Sell(ctx context.Context, pair entity.Pair, usdAmount decimal.Decimal) error
	Cash() decimal.Decimal
	PortfolioValue(ctx context.Context) decimal.Decimal
	PositionValue(ctx context.Context, pair entity.Pair) decimal.Decimal
}

// Config bounds trade sizing and pacing.
type Config struct {
	Pairs               []entity.Pair
	MinTrade            decimal.Decimal
	MaxTrade            decimal.Decimal
	MaxPositionFraction decimal.Decimal
	Cooldown            time.Duration
	Quotes              []string
}

type candidate struct {
	pair     entity.Pair
	analysis entity.Analysis
}

// Decider holds the loop state. lastTrade starts at zero so the first tick
// is immediately eligible.
//
// Two locks: mu serializes Tick (and guards rnd), stateMu guards the small
// fields the web read path needs. stateMu is never held across a feed or
// ledger call, so readers are not stalled by a slow market source.
type Decider struct {
	mu     sync.Mutex
	conf   Config
	source MarketSource
	ledger Executor
	logger *zap.Logger
	rnd    *rand.Rand
	now    func() time.Time

	stateMu      sync.RWMutex
	lastTrade    time.Time
	currentQuote string
}

// New creates the decision loop.
func New(conf Config, source MarketSource, ledger Executor, logger *zap.Logger) (*Decider, error) {
	if source == nil || ledger == nil {
		return nil, errors.New("market source and ledger are required")
	}
	if len(conf.Pairs) == 0 {
		return nil, errors.New("at least one trading pair is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Decider{
		conf:   conf,
		source: source,
		ledger: ledger,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
	d.currentQuote = d.rollQuote()
	return d, nil
}

// CurrentQuote returns the quote shown in the portfolio summary. It changes
// after every executed trade.
func (d *Decider) CurrentQuote() string {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.currentQuote
}

func (d *Decider) lastTradeTime() time.Time {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.lastTrade
}

// Tick runs one evaluation. It returns a non-nil event only when a trade
// was executed. The cooldown timer resets on success only, so a failed
// execution leaves the loop eligible to retry on the next tick.
func (d *Decider) Tick(ctx context.Context) (*entity.TradeEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	metrics.DecisionCycles.Inc()

	now := d.now()
	if now.Sub(d.lastTradeTime()) < d.conf.Cooldown {
		return nil, nil
	}

	best, ok := d.bestCandidate(ctx)
	if !ok {
		return nil, nil
	}

	amount := d.tradeAmount(ctx)
	executed := false

	switch best.analysis.Signal {
	case entity.SignalBuy:
		if d.ledger.Cash().GreaterThanOrEqual(amount) {
			if err := d.ledger.Buy(ctx, best.pair, amount); err != nil {
				d.logger.Warn("buy attempt failed", zap.String("pair", best.pair.String()), zap.Error(err))
			} else {
				executed = true
			}
		}
	case entity.SignalSell:
		if positionValue := d.ledger.PositionValue(ctx, best.pair); positionValue.IsPositive() {
			if positionValue.LessThan(amount) {
				amount = positionValue
			}
			if err := d.ledger.Sell(ctx, best.pair, amount); err != nil {
				d.logger.Warn("sell attempt failed", zap.String("pair", best.pair.String()), zap.Error(err))
			} else {
				executed = true
			}
		}
	}

	if !executed {
		metrics.TradesRejected.Inc()
		return nil, nil
	}

	d.stateMu.Lock()
	d.lastTrade = now
	d.currentQuote = d.rollQuote()
	d.stateMu.Unlock()

	action := entity.ActionBuy
	if best.analysis.Signal == entity.SignalSell {
		action = entity.ActionSell
	}
	metrics.TradesExecuted.WithLabelValues(string(action)).Inc()

	return &entity.TradeEvent{
		Action:     action,
		Pair:       best.pair,
		Amount:     amount,
		Confidence: best.analysis.Confidence,
	}, nil
}

// bestCandidate scans all pairs and keeps the max-confidence actionable
// signal; ties break toward the pair encountered first.
func (d *Decider) bestCandidate(ctx context.Context) (candidate, bool) {
	var best candidate
	found := false

	for _, pair := range d.conf.Pairs {
		a := d.analyze(ctx, pair)
		if a.Confidence <= confidenceFloor {
			continue
		}
		if !found || a.Confidence > best.analysis.Confidence {
			best = candidate{pair: pair, analysis: a}
			found = true
		}
	}
	return best, found
}

func (d *Decider) analyze(ctx context.Context, pair entity.Pair) entity.Analysis {
	price, err := d.source.Price(ctx, pair)
	if err != nil {
		metrics.PriceLookupFailures.WithLabelValues(pair.String()).Inc()
		d.logger.Debug("price unavailable, holding", zap.String("pair", pair.String()), zap.Error(err))
		return analyzer.Hold()
	}
	stats, err := d.source.DailyStats(ctx, pair)
	if err != nil {
		metrics.PriceLookupFailures.WithLabelValues(pair.String()).Inc()
		d.logger.Debug("stats unavailable, holding", zap.String("pair", pair.String()), zap.Error(err))
		return analyzer.Hold()
	}
	return analyzer.Analyze(price, stats)
}

// tradeAmount draws uniformly between the minimum trade size and the cap
// min(maxTrade, portfolioValue*maxPositionFraction). When the cap falls
// below the minimum, the minimum wins.
func (d *Decider) tradeAmount(ctx context.Context) decimal.Decimal {
	ceiling := d.ledger.PortfolioValue(ctx).Mul(d.conf.MaxPositionFraction)
	if ceiling.GreaterThan(d.conf.MaxTrade) {
		ceiling = d.conf.MaxTrade
	}
	if ceiling.LessThanOrEqual(d.conf.MinTrade) {
		return d.conf.MinTrade
	}
	span := ceiling.Sub(d.conf.MinTrade)
	return d.conf.MinTrade.Add(span.Mul(decimal.NewFromFloat(d.rnd.Float64())))
}

func (d *Decider) rollQuote() string {
	if len(d.conf.Quotes) == 0 {
		return ""
	}
	return d.conf.Quotes[d.rnd.Intn(len(d.conf.Quotes))]
}
