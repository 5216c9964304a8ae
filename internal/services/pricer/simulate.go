package pricer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/scrantonlabs/scranton/internal/entity"
)

// walkRange is the half-width of the uniform percentage step applied on
// every price query.
const walkRange = 0.02

var seedPrices = map[string]decimal.Decimal{
	"BTC-USD": decimal.NewFromInt(45000),
	"ETH-USD": decimal.NewFromInt(3200),
	"ADA-USD": decimal.NewFromFloat(0.45),
}

var defaultSeedPrice = decimal.NewFromInt(100)

// SimulatePricer is a self-contained price feed. Every Price call perturbs
// the stored price by a uniform step in [-2%, +2%] and returns the result
// rounded to 2 decimals, so repeated queries are not idempotent.
type SimulatePricer struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	pairs  []entity.Pair
	rnd    *rand.Rand
	logger *zap.Logger
}

// NewSimulatePricer creates a simulator seeded with well-known prices for
// the original pairs and a fixed default for everything else configured.
func NewSimulatePricer(pairs []entity.Pair, logger *zap.Logger) *SimulatePricer {
	if logger == nil {
		logger = zap.NewNop()
	}
	prices := make(map[string]decimal.Decimal, len(pairs))
	for _, pair := range pairs {
		if seed, ok := seedPrices[pair.String()]; ok {
			prices[pair.String()] = seed
		} else {
			prices[pair.String()] = defaultSeedPrice
		}
	}
	return &SimulatePricer{
		prices: prices,
		pairs:  pairs,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

func (p *SimulatePricer) Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.prices[pair.String()]
	if !ok {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "simulator does not track %s", pair.String())
	}

	step := p.rnd.Float64()*2*walkRange - walkRange
	price = price.Mul(decimal.NewFromFloat(1 + step))
	p.prices[pair.String()] = price

	p.logger.Debug("simulated price walk",
		zap.String("pair", pair.String()),
		zap.String("price", price.StringFixed(2)))

	return price.Round(2), nil
}

func (p *SimulatePricer) DailyStats(ctx context.Context, pair entity.Pair) (entity.DailyStats, error) {
	price, err := p.Price(ctx, pair)
	if err != nil {
		return entity.DailyStats{}, err
	}
	return syntheticStats(price), nil
}

func (p *SimulatePricer) Pairs() []entity.Pair {
	return p.pairs
}
