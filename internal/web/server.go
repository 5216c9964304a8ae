// Package web exposes the bot's HTTP surface: the JSON API, Prometheus
// metrics and an embedded HTML dashboard.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/scrantonlabs/scranton/internal/entity"
)

type portfolioReader interface {
	PortfolioSummary(ctx context.Context) entity.PortfolioSummary
	CashBalance() float64
}

type tradesReader interface {
	TradeHistory() []entity.TradeRecord
}

type marketReader interface {
	MarketData(ctx context.Context) map[string]entity.MarketData
}

// Server exposes HTTP endpoints serving the HTML UI and the JSON API.
type Server struct {
	Addr      string
	Portfolio portfolioReader
	Trades    tradesReader
	Market    marketReader
	Logger    *zap.Logger
}

// NewServer creates a new web server instance. The bot satisfies all three
// reader interfaces.
func NewServer(addr string, portfolio portfolioReader, trades tradesReader, market marketReader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Portfolio: portfolio, Trades: trades, Market: market, Logger: logger}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/api/portfolio", cors(http.HandlerFunc(s.handlePortfolio)))
	mux.Handle("/api/trades", cors(http.HandlerFunc(s.handleTrades)))
	mux.Handle("/api/market-data", cors(http.HandlerFunc(s.handleMarketData)))
	mux.Handle("/api/balance", cors(http.HandlerFunc(s.handleBalance)))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("web server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// cors mirrors the permissive policy of the original dashboard; the API is
// read-only so wildcard origins are acceptable here.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Portfolio.PortfolioSummary(r.Context()))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.Trades.TradeHistory()
	if trades == nil {
		trades = []entity.TradeRecord{}
	}
	s.writeJSON(w, trades)
}

func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Market.MarketData(r.Context()))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]float64{"balance": s.Portfolio.CashBalance()})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// Single-page dashboard polling the JSON API.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Scranton Paper Trading</title>
  <style>
    :root {
      --bg:#f6f5f0;
      --ink:#242424;
      --ink-mid:#5a5a5a;
      --paper:#ffffff;
      --green:#1e7d46;
      --red:#b03030;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:Georgia, 'Times New Roman', serif;
    }
    .wrap { max-width:1100px; margin:0 auto; }
    header { border-bottom:3px double var(--ink); padding-bottom:1rem; margin-bottom:1.5rem; }
    h1 { margin:0; font-size:1.6rem; letter-spacing:.04em; }
    .quote { font-style:italic; color:var(--ink-mid); margin-top:.5rem; }
    .cards { display:grid; grid-template-columns:repeat(auto-fit, minmax(200px,1fr)); gap:1rem; margin-bottom:1.5rem; }
    .card { background:var(--paper); border:1px solid #ddd; padding:1rem 1.2rem; box-shadow:2px 2px 0 rgba(0,0,0,.06); }
    .card .label { font-size:.7rem; text-transform:uppercase; letter-spacing:.15em; color:var(--ink-mid); }
    .card .value { font-size:1.5rem; margin-top:.4rem; font-variant-numeric:tabular-nums; }
    .pos { color:var(--green); }
    .neg { color:var(--red); }
    h2 { font-size:1rem; text-transform:uppercase; letter-spacing:.12em; border-bottom:1px solid #ccc; padding-bottom:.4rem; }
    table { width:100%; border-collapse:collapse; background:var(--paper); font-size:.85rem; }
    th, td { text-align:left; padding:.45rem .7rem; border-bottom:1px solid #eee; font-variant-numeric:tabular-nums; }
    th { font-size:.7rem; text-transform:uppercase; letter-spacing:.1em; color:var(--ink-mid); }
    .empty { color:var(--ink-mid); font-style:italic; padding:1rem 0; }
    .buy { color:var(--green); font-weight:bold; }
    .sell { color:var(--red); font-weight:bold; }
  </style>
</head>
<body>
  <div class="wrap">
    <header>
      <h1>Scranton Paper Trading Desk</h1>
      <div id="quote" class="quote"></div>
    </header>
    <section class="cards">
      <div class="card"><div class="label">Portfolio value</div><div id="value" class="value">–</div></div>
      <div class="card"><div class="label">Cash balance</div><div id="cash" class="value">–</div></div>
      <div class="card"><div class="label">Total P&amp;L</div><div id="pnl" class="value">–</div></div>
      <div class="card"><div class="label">Trades</div><div id="trades-count" class="value">–</div></div>
    </section>
    <section>
      <h2>Positions</h2>
      <div id="positions"></div>
    </section>
    <section>
      <h2>Recent trades</h2>
      <div id="history"></div>
    </section>
  </div>
<script>
const usd = (n) => '$' + Number(n).toLocaleString(undefined, {minimumFractionDigits:2, maximumFractionDigits:2});

function renderPositions(positions){
  const el = document.getElementById('positions');
  if(!positions || positions.length === 0){
    el.innerHTML = '<div class="empty">No open positions.</div>';
    return;
  }
  let rows = positions.map(p =>
    '<tr><td>' + p.asset + '</td><td>' + p.quantity + '</td><td>' + usd(p.avg_price) +
    '</td><td>' + usd(p.current_value) + '</td><td class="' + (p.pnl >= 0 ? 'pos':'neg') + '">' +
    usd(p.pnl) + ' (' + p.pnl_pct.toFixed(2) + '%)</td></tr>').join('');
  el.innerHTML = '<table><thead><tr><th>Asset</th><th>Quantity</th><th>Avg price</th><th>Value</th><th>P&L</th></tr></thead><tbody>' + rows + '</tbody></table>';
}

function renderTrades(trades){
  const el = document.getElementById('history');
  if(!trades || trades.length === 0){
    el.innerHTML = '<div class="empty">No trades yet. The decision loop is watching the market.</div>';
    return;
  }
  let rows = trades.slice().reverse().map(t =>
    '<tr><td>' + t.timestamp + '</td><td class="' + t.action + '">' + t.action.toUpperCase() +
    '</td><td>' + t.asset + '</td><td>' + t.quantity + '</td><td>' + usd(t.price) +
    '</td><td>' + usd(t.total) + '</td></tr>').join('');
  el.innerHTML = '<table><thead><tr><th>Time</th><th>Action</th><th>Asset</th><th>Quantity</th><th>Price</th><th>Total</th></tr></thead><tbody>' + rows + '</tbody></table>';
}

async function refresh(){
  try {
    const [portfolio, trades] = await Promise.all([
      fetch('/api/portfolio').then(r => r.json()),
      fetch('/api/trades').then(r => r.json())
    ]);
    document.getElementById('value').textContent = usd(portfolio.portfolio_value);
    document.getElementById('cash').textContent = usd(portfolio.cash_balance);
    const pnlEl = document.getElementById('pnl');
    pnlEl.textContent = usd(portfolio.total_pnl) + ' (' + portfolio.pnl_pct.toFixed(2) + '%)';
    pnlEl.className = 'value ' + (portfolio.total_pnl >= 0 ? 'pos':'neg');
    document.getElementById('trades-count').textContent = portfolio.total_trades;
    document.getElementById('quote').textContent = portfolio.current_quote || '';
    renderPositions(portfolio.positions);
    renderTrades(trades);
  } catch (err) {
    console.error('refresh', err);
  }
}

refresh();
setInterval(refresh, 5000);
</script>
</body>
</html>`
