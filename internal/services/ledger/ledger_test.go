package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrantonlabs/scranton/internal/entity"
)

// mockPricer serves fixed prices per asset; assets without an entry report
// an unavailable price.
type mockPricer struct {
	prices map[string]decimal.Decimal
}

func (m *mockPricer) Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error) {
	price, ok := m.prices[pair.String()]
	if !ok {
		return decimal.Decimal{}, errors.Errorf("no price for %s", pair.String())
	}
	return price, nil
}

var btcUSD = entity.Pair{Base: "BTC", Quote: "USD"}

func newTestLedger(t *testing.T, balance int64, prices map[string]decimal.Decimal) (*Ledger, *mockPricer) {
	t.Helper()
	pricer := &mockPricer{prices: prices}
	l, err := New(decimal.NewFromInt(balance), pricer, zap.NewNop())
	require.NoError(t, err)
	return l, pricer
}

func TestNew_Validation(t *testing.T) {
	_, err := New(decimal.NewFromInt(10000), nil, zap.NewNop())
	assert.Error(t, err)

	_, err = New(decimal.Zero, &mockPricer{}, zap.NewNop())
	assert.Error(t, err)
}

func TestLedger_Buy(t *testing.T) {
	l, _ := newTestLedger(t, 10000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(45000),
	})
	ctx := context.Background()

	err := l.Buy(ctx, btcUSD, decimal.NewFromInt(1000))
	require.NoError(t, err)

	// quantity = 1000/45000, cash reduced by quantity*price = exactly 1000
	assert.True(t, l.Cash().Equal(decimal.NewFromInt(9000)), "cash = %s", l.Cash())

	trades := l.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, entity.ActionBuy, trades[0].Action)
	assert.Equal(t, "BTC-USD", trades[0].Asset)
	assert.InDelta(t, 0.022222, trades[0].Quantity, 1e-6)
	assert.Equal(t, 45000.0, trades[0].Price)
	assert.Equal(t, 1000.0, trades[0].Total)
	// valuation at the record instant: 9000 cash + position at cost
	assert.Equal(t, 10000.0, trades[0].PortfolioValue)
	assert.NotEmpty(t, trades[0].ID)
	assert.NotEmpty(t, trades[0].Timestamp)
}

func TestLedger_Buy_InsufficientFunds(t *testing.T) {
	l, _ := newTestLedger(t, 500, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(45000),
	})

	err := l.Buy(context.Background(), btcUSD, decimal.NewFromInt(1000))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	// no state change
	assert.True(t, l.Cash().Equal(decimal.NewFromInt(500)))
	assert.Empty(t, l.Trades())
}

func TestLedger_Buy_PriceUnavailable(t *testing.T) {
	l, _ := newTestLedger(t, 10000, map[string]decimal.Decimal{})

	err := l.Buy(context.Background(), btcUSD, decimal.NewFromInt(1000))
	require.Error(t, err)
	assert.True(t, l.Cash().Equal(decimal.NewFromInt(10000)))
	assert.Empty(t, l.Trades())
}

func TestLedger_Buy_WeightedAverage(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(50000),
	}}
	l, err := New(decimal.NewFromInt(10000), pricer, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(1000)))

	pricer.prices["BTC-USD"] = decimal.NewFromInt(40000)
	require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(1200)))

	// lot 1: 0.02 at 50000, lot 2: 0.03 at 40000
	// avg = (1000 + 1200) / 0.05 = 44000
	assert.True(t, l.Cash().Equal(decimal.NewFromInt(7800)))

	pnl := l.UnrealizedPnL(ctx, btcUSD)
	// at 40000: 0.05*40000 - 0.05*44000 = -200
	assert.True(t, pnl.Equal(decimal.NewFromInt(-200)), "pnl = %s", pnl)
}

func TestLedger_Sell_ClampsToPosition(t *testing.T) {
	l, _ := newTestLedger(t, 10000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	})
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(1000)))

	// asking for 5000 USD worth, holding only 1000 worth: sells everything
	require.NoError(t, l.Sell(ctx, btcUSD, decimal.NewFromInt(5000)))

	assert.True(t, l.Cash().Equal(decimal.NewFromInt(10000)), "cash = %s", l.Cash())
	assert.True(t, l.PositionValue(ctx, btcUSD).IsZero())

	trades := l.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, entity.ActionSell, trades[1].Action)
	assert.Equal(t, 1000.0, trades[1].Total)

	// position is gone, another sell fails
	err := l.Sell(ctx, btcUSD, decimal.NewFromInt(100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPosition))
}

func TestLedger_Sell_Partial(t *testing.T) {
	l, _ := newTestLedger(t, 10000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	})
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(2000)))
	require.NoError(t, l.Sell(ctx, btcUSD, decimal.NewFromInt(500)))

	assert.True(t, l.Cash().Equal(decimal.NewFromInt(8500)), "cash = %s", l.Cash())
	assert.True(t, l.PositionValue(ctx, btcUSD).Equal(decimal.NewFromInt(1500)))
}

func TestLedger_Sell_NoPosition(t *testing.T) {
	l, _ := newTestLedger(t, 10000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	})

	err := l.Sell(context.Background(), btcUSD, decimal.NewFromInt(100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPosition))
	assert.True(t, l.Cash().Equal(decimal.NewFromInt(10000)))
}

func TestLedger_HistoryBounded(t *testing.T) {
	l, _ := newTestLedger(t, 1000000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	})
	ctx := context.Background()

	for i := 0; i < historyCap+10; i++ {
		require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(10)))
	}

	trades := l.Trades()
	assert.Len(t, trades, historyCap)

	// total trade count keeps the cap, but the summary reflects the bound too
	summary := l.Summary(ctx)
	assert.Equal(t, historyCap, summary.TotalTrades)
}

func TestLedger_HistoryEvictsOldest(t *testing.T) {
	l, _ := newTestLedger(t, 1000000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	})
	ctx := context.Background()

	var ids []string
	for i := 0; i < historyCap+5; i++ {
		require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(10)))
		trades := l.Trades()
		ids = append(ids, trades[len(trades)-1].ID)
	}

	trades := l.Trades()
	require.Len(t, trades, historyCap)
	// the five oldest records are gone, order of the rest is preserved
	assert.Equal(t, ids[5], trades[0].ID)
	assert.Equal(t, ids[len(ids)-1], trades[historyCap-1].ID)
}

func TestLedger_PortfolioValue_SkipsUnavailableAssets(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	}}
	l, err := New(decimal.NewFromInt(10000), pricer, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(1000)))

	// feed goes dark: the held asset contributes nothing, cash remains
	delete(pricer.prices, "BTC-USD")
	value := l.PortfolioValue(ctx)
	assert.True(t, value.Equal(decimal.NewFromInt(9000)), "value = %s", value)

	// feed recovers at a higher price
	pricer.prices["BTC-USD"] = decimal.NewFromInt(44000)
	value = l.PortfolioValue(ctx)
	assert.True(t, value.Equal(decimal.NewFromInt(10100)), "value = %s", value)
}

func TestLedger_Summary(t *testing.T) {
	pricer := &mockPricer{prices: map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
		"ETH-USD": decimal.NewFromInt(3000),
	}}
	l, err := New(decimal.NewFromInt(10000), pricer, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	ethUSD := entity.Pair{Base: "ETH", Quote: "USD"}
	require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(1000)))
	require.NoError(t, l.Buy(ctx, ethUSD, decimal.NewFromInt(600)))

	pricer.prices["BTC-USD"] = decimal.NewFromInt(44000)

	summary := l.Summary(ctx)
	assert.Equal(t, 8400.0, summary.CashBalance)
	// 8400 + 0.025*44000 + 0.2*3000 = 8400 + 1100 + 600 = 10100
	assert.Equal(t, 10100.0, summary.PortfolioValue)
	assert.Equal(t, 100.0, summary.TotalPnL)
	assert.Equal(t, 1.0, summary.PnLPct)
	assert.Equal(t, 2, summary.TotalTrades)

	require.Len(t, summary.Positions, 2)
	// positions are sorted by asset name
	assert.Equal(t, "BTC-USD", summary.Positions[0].Asset)
	assert.Equal(t, "ETH-USD", summary.Positions[1].Asset)

	btc := summary.Positions[0]
	assert.Equal(t, 0.025, btc.Quantity)
	assert.Equal(t, 40000.0, btc.AvgPrice)
	assert.Equal(t, 1100.0, btc.CurrentValue)
	assert.Equal(t, 100.0, btc.PnL)
	assert.Equal(t, 10.0, btc.PnLPct)
}

func TestLedger_TradesReturnsCopy(t *testing.T) {
	l, _ := newTestLedger(t, 10000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	})
	require.NoError(t, l.Buy(context.Background(), btcUSD, decimal.NewFromInt(100)))

	trades := l.Trades()
	trades[0].Asset = "mutated"

	assert.Equal(t, "BTC-USD", l.Trades()[0].Asset)
}

// laggyPricer serves fixed prices with a switchable delay, standing in for
// a feed that turns slow mid-run.
type laggyPricer struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	delay  time.Duration
}

func (m *laggyPricer) setDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *laggyPricer) Price(ctx context.Context, pair entity.Pair) (decimal.Decimal, error) {
	m.mu.Lock()
	delay := m.delay
	price, ok := m.prices[pair.String()]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		return decimal.Decimal{}, errors.Errorf("no price for %s", pair.String())
	}
	return price, nil
}

func TestLedger_ReadersNotBlockedBySlowTrade(t *testing.T) {
	pricer := &laggyPricer{prices: map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	}}
	l, err := New(decimal.NewFromInt(10000), pricer, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, btcUSD, decimal.NewFromInt(1000)))

	pricer.setDelay(300 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- l.Buy(ctx, btcUSD, decimal.NewFromInt(500)) }()

	// while the second buy waits on the feed, every reader must answer
	// from in-memory state without queueing behind it
	buying := true
	for buying {
		select {
		case err := <-done:
			require.NoError(t, err)
			buying = false
		default:
			start := time.Now()
			_ = l.Cash()
			_ = l.Trades()
			elapsed := time.Since(start)
			assert.Less(t, elapsed, 100*time.Millisecond, "reader waited %s on the trade", elapsed)
			time.Sleep(20 * time.Millisecond)
		}
	}

	assert.True(t, l.Cash().Equal(decimal.NewFromInt(8500)))
	assert.Len(t, l.Trades(), 2)
}

func TestLedger_ConcurrentAccess(t *testing.T) {
	l, _ := newTestLedger(t, 1000000, map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(40000),
	})
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 25; j++ {
				_ = l.Buy(ctx, btcUSD, decimal.NewFromInt(10))
				_ = l.PortfolioValue(ctx)
				_ = l.Trades()
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	// 100 buys of 10 USD each
	expected := decimal.NewFromInt(1000000 - 100*10)
	assert.True(t, l.Cash().Equal(expected), fmt.Sprintf("cash = %s", l.Cash()))
}
