package internal

import (
	"context"
	"net/http"
	"time"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"go.uber.org/zap"

	"github.com/scrantonlabs/scranton/config"
	"github.com/scrantonlabs/scranton/internal/services/pricer"
)

const (
	probeTimeout = 10 * time.Second
	// feedTimeout bounds every price request to a live venue; the SDK
	// defaults carry no timeout and would hang on a dead connection.
	feedTimeout = 10 * time.Second
)

func feedHTTPClient() *http.Client {
	return &http.Client{Timeout: feedTimeout}
}

func newBinanceClient() *binance.Client {
	client := binance.NewClient("", "")
	client.HTTPClient = feedHTTPClient()
	return client
}

// NewMarketSource dispatches on the configured platform. Live platforms are
// probed with a single price lookup at startup; when the probe fails the
// bot falls back to the self-contained simulator instead of refusing to run.
func NewMarketSource(conf config.Config, logger *zap.Logger) pricer.MarketSource {
	if logger == nil {
		logger = zap.NewNop()
	}

	var source pricer.MarketSource
	switch conf.Platform {
	case "simulate":
		logger.Info("using simulated price feed")
		return pricer.NewSimulatePricer(conf.Pairs, logger)
	case "binance":
		source = pricer.NewBinancePricer(newBinanceClient(), conf.Pairs)
	case "bybit":
		source = pricer.NewBybitPricer(bybit.NewClient().WithHTTPClient(feedHTTPClient()), conf.Pairs)
	default:
		source = pricer.NewCoinbasePricer(conf.APIKey, conf.Pairs)
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if _, err := source.Price(ctx, conf.Pairs[0]); err != nil {
		logger.Warn("live price feed unreachable, falling back to simulator",
			zap.String("platform", conf.Platform),
			zap.Error(err))
		return pricer.NewSimulatePricer(conf.Pairs, logger)
	}

	logger.Info("live price feed connected", zap.String("platform", conf.Platform))
	return source
}
