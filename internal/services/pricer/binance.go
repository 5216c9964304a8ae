package pricer

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrantonlabs/scranton/internal/entity"
)

// BinancePricer fetches prices from the Binance public API. No credentials
// are needed for market data.
type BinancePricer struct {
	client *binance.Client
	pairs  []entity.Pair
}

// NewBinancePricer creates a Binance-backed market source.
func NewBinancePricer(client *binance.Client, pairs []entity.Pair) *BinancePricer {
	return &BinancePricer{client: client, pairs: pairs}
}

func (p *BinancePricer) Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "binance ticker %s: %v", pair.String(), err)
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "binance returned no prices for %s", pair.String())
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "binance ticker %s: price %q", pair.String(), prices[0].Price)
	}
	return price, nil
}

func (p *BinancePricer) DailyStats(ctx context.Context, pair entity.Pair) (entity.DailyStats, error) {
	price, err := p.Price(ctx, pair)
	if err != nil {
		return entity.DailyStats{}, err
	}
	return syntheticStats(price), nil
}

func (p *BinancePricer) Pairs() []entity.Pair {
	return p.pairs
}
