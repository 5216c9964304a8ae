package pricer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrantonlabs/scranton/internal/entity"
)

const (
	coinbaseBaseURL = "https://api.coinbase.com/v2"
	requestTimeout  = 10 * time.Second
)

// CoinbasePricer fetches spot prices from the Coinbase public API. The
// credential is optional; the spot endpoint works without authentication.
type CoinbasePricer struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pairs      []entity.Pair
}

// NewCoinbasePricer creates a Coinbase-backed market source.
func NewCoinbasePricer(apiKey string, pairs []entity.Pair) *CoinbasePricer {
	return &CoinbasePricer{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    coinbaseBaseURL,
		apiKey:     apiKey,
		pairs:      pairs,
	}
}

type coinbaseSpotResponse struct {
	Data struct {
		Amount string `json:"amount"`
	} `json:"data"`
}

// Price fetches the current spot price. Any network, status or parsing
// failure is converted to ErrPriceUnavailable at this boundary.
func (p *CoinbasePricer) Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/prices/%s/spot", p.baseURL, pair.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "coinbase request for %s: %v", pair.String(), err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "coinbase spot %s: %v", pair.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "coinbase spot %s: status %d", pair.String(), resp.StatusCode)
	}

	var body coinbaseSpotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "coinbase spot %s: decode: %v", pair.String(), err)
	}

	price, err := decimal.NewFromString(body.Data.Amount)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(ErrPriceUnavailable, "coinbase spot %s: amount %q", pair.String(), body.Data.Amount)
	}
	return price, nil
}

// DailyStats synthesizes 24h statistics from the spot price.
func (p *CoinbasePricer) DailyStats(ctx context.Context, pair entity.Pair) (entity.DailyStats, error) {
	price, err := p.Price(ctx, pair)
	if err != nil {
		return entity.DailyStats{}, err
	}
	return syntheticStats(price), nil
}

func (p *CoinbasePricer) Pairs() []entity.Pair {
	return p.pairs
}
