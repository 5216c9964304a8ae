package pricer

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrantonlabs/scranton/internal/entity"
)

// BybitPricer fetches prices from the Bybit V5 public market API.
type BybitPricer struct {
	client *bybit.Client
	pairs  []entity.Pair
}

// NewBybitPricer creates a Bybit-backed market source.
func NewBybitPricer(client *bybit.Client, pairs []entity.Pair) *BybitPricer {
	return &BybitPricer{client: client, pairs: pairs}
}

func (p *BybitPricer) Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(pair.Symbol())

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "bybit ticker %s: %v", pair.String(), err)
	}
	if len(result.Result.Spot.List) == 0 {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "bybit returned no prices for %s", pair.String())
	}

	price, err := decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "bybit ticker %s: price %q", pair.String(), result.Result.Spot.List[0].LastPrice)
	}
	return price, nil
}

func (p *BybitPricer) DailyStats(ctx context.Context, pair entity.Pair) (entity.DailyStats, error) {
	price, err := p.Price(ctx, pair)
	if err != nil {
		return entity.DailyStats{}, err
	}
	return syntheticStats(price), nil
}

func (p *BybitPricer) Pairs() []entity.Pair {
	return p.pairs
}
