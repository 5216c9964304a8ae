package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scrantonlabs/scranton/config"
	"github.com/scrantonlabs/scranton/internal/entity"
	"github.com/scrantonlabs/scranton/internal/services/analyzer"
	"github.com/scrantonlabs/scranton/internal/services/decider"
	"github.com/scrantonlabs/scranton/internal/services/ledger"
	"github.com/scrantonlabs/scranton/internal/services/pricer"
)

// Bot wires the market source, the ledger and the decision loop together
// and exposes the read model consumed by the web layer. It is constructed
// once in main and passed explicitly to the scheduler and the HTTP server;
// there is no ambient singleton.
type Bot struct {
	source  pricer.MarketSource
	ledger  *ledger.Ledger
	decider *decider.Decider
	logger  *zap.Logger
}

// NewBot assembles the bot from a configuration and a market source.
func NewBot(conf config.Config, source pricer.MarketSource, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	book, err := ledger.New(conf.InitialBalance, source, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create ledger")
	}

	loop, err := decider.New(decider.Config{
		Pairs:               conf.Pairs,
		MinTrade:            conf.MinTrade,
		MaxTrade:            conf.MaxTrade,
		MaxPositionFraction: conf.MaxPositionFraction,
		Cooldown:            conf.Cooldown,
		Quotes:              conf.Quotes,
	}, source, book, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create decider")
	}

	return &Bot{
		source:  source,
		ledger:  book,
		decider: loop,
		logger:  logger,
	}, nil
}

// Tick runs one decision cycle. Feed outages and rejected trades are
// handled inside the loop; Tick never returns an error for them, so the
// scheduler keeps running whatever the market does.
func (b *Bot) Tick(ctx context.Context) error {
	event, err := b.decider.Tick(ctx)
	if err != nil {
		return err
	}
	if event != nil {
		b.logger.Info("trade executed", zap.String("event", event.String()))
	}
	return nil
}

// PortfolioSummary returns the rounded portfolio view for the API.
func (b *Bot) PortfolioSummary(ctx context.Context) entity.PortfolioSummary {
	summary := b.ledger.Summary(ctx)
	summary.CurrentQuote = b.decider.CurrentQuote()
	return summary
}

// CashBalance returns the rounded cash balance for the legacy endpoint.
func (b *Bot) CashBalance() float64 {
	return b.ledger.Cash().Round(2).InexactFloat64()
}

// TradeHistory returns the trade records, oldest first.
func (b *Bot) TradeHistory() []entity.TradeRecord {
	return b.ledger.Trades()
}

// MarketData snapshots price, stats and analysis for every configured pair.
// Assets with an unreachable feed keep their entry, degraded to a hold
// analysis with price and stats omitted.
func (b *Bot) MarketData(ctx context.Context) map[string]entity.MarketData {
	out := make(map[string]entity.MarketData, len(b.source.Pairs()))
	for _, pair := range b.source.Pairs() {
		price, err := b.source.Price(ctx, pair)
		if err != nil {
			out[pair.String()] = entity.MarketData{Analysis: analyzer.Hold()}
			continue
		}
		stats, err := b.source.DailyStats(ctx, pair)
		if err != nil {
			current := price.Round(2).InexactFloat64()
			out[pair.String()] = entity.MarketData{CurrentPrice: &current, Analysis: analyzer.Hold()}
			continue
		}
		current := price.Round(2).InexactFloat64()
		statsSummary := stats.Summary()
		out[pair.String()] = entity.MarketData{
			CurrentPrice: &current,
			Stats:        &statsSummary,
			Analysis:     analyzer.Analyze(price, stats),
		}
	}
	return out
}
