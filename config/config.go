// Package config loads the bot configuration from an optional YAML file,
// an optional .env file and environment variable overrides. Everything is
// fixed at process start; there is no hot reload.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/scrantonlabs/scranton/internal/entity"
)

// Config is the validated runtime configuration.
type Config struct {
	Platform            string
	ListenAddr          string
	APIKey              string
	InitialBalance      decimal.Decimal
	Pairs               []entity.Pair
	MinTrade            decimal.Decimal
	MaxTrade            decimal.Decimal
	MaxPositionFraction decimal.Decimal
	Cooldown            time.Duration
	PollInterval        time.Duration
	Quotes              []string
}

// configTmp mirrors the YAML file; numeric values are decoded from strings
// to keep decimal precision.
type configTmp struct {
	Platform        string   `yaml:"platform,omitempty"`
	ListenAddr      string   `yaml:"listen_addr,omitempty"`
	APIKey          string   `yaml:"api_key,omitempty"`
	InitialBalance  string   `yaml:"initial_balance,omitempty"`
	TradingPairs    []string `yaml:"trading_pairs,omitempty"`
	MinTrade        string   `yaml:"min_trade,omitempty"`
	MaxTrade        string   `yaml:"max_trade,omitempty"`
	MaxPositionSize string   `yaml:"max_position_size,omitempty"`
	TradeInterval   string   `yaml:"trade_interval,omitempty"`
	PollInterval    string   `yaml:"poll_interval,omitempty"`
	Quotes          []string `yaml:"quotes,omitempty"`
}

// DefaultQuotes rotate through the portfolio summary, one re-rolled after
// every executed trade.
var DefaultQuotes = []string{
	"You miss 100% of the trades you don't take. – Michael Scott",
	"That's what she said! – Michael Scott",
	"Bears. Beets. Battlestar Galactica. ...And Trades. – Jim Halpert",
	"I'm not superstitious, but I am a little stitious. – Michael Scott",
	"Sometimes I'll start a sentence and I don't even know where it's going. – Michael Scott",
}

var defaultPairs = []string{"BTC-USD", "ETH-USD", "ADA-USD"}

// Load reads the YAML file at path (missing file is fine, defaults apply),
// loads .env if present and applies environment overrides.
func Load(path string) (Config, error) {
	// original behavior: a broken or absent .env never stops the bot
	_ = godotenv.Load()

	tmp := configTmp{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &tmp); err != nil {
			return Config{}, errors.Wrap(err, "parse config")
		}
	}

	if v := os.Getenv("COINBASE_API_KEY"); v != "" {
		tmp.APIKey = v
	}
	if v := os.Getenv("PLATFORM"); v != "" {
		tmp.Platform = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		tmp.ListenAddr = v
	}

	return build(tmp)
}

func build(tmp configTmp) (Config, error) {
	conf := Config{
		Platform:   tmp.Platform,
		ListenAddr: tmp.ListenAddr,
		APIKey:     tmp.APIKey,
		Quotes:     tmp.Quotes,
	}

	var err error
	if conf.Cooldown, err = durationOrDefault(tmp.TradeInterval, 30*time.Second); err != nil {
		return Config{}, errors.Wrap(err, "trade_interval")
	}
	if conf.PollInterval, err = durationOrDefault(tmp.PollInterval, 5*time.Second); err != nil {
		return Config{}, errors.Wrap(err, "poll_interval")
	}

	if conf.Platform == "" {
		conf.Platform = "coinbase"
	}
	if conf.ListenAddr == "" {
		conf.ListenAddr = ":5000"
	}
	if len(conf.Quotes) == 0 {
		conf.Quotes = DefaultQuotes
	}

	if conf.InitialBalance, err = decimalOrDefault(tmp.InitialBalance, "10000"); err != nil {
		return Config{}, errors.Wrap(err, "initial_balance")
	}
	if conf.MinTrade, err = decimalOrDefault(tmp.MinTrade, "50"); err != nil {
		return Config{}, errors.Wrap(err, "min_trade")
	}
	if conf.MaxTrade, err = decimalOrDefault(tmp.MaxTrade, "1000"); err != nil {
		return Config{}, errors.Wrap(err, "max_trade")
	}
	if conf.MaxPositionFraction, err = decimalOrDefault(tmp.MaxPositionSize, "0.2"); err != nil {
		return Config{}, errors.Wrap(err, "max_position_size")
	}

	pairNames := tmp.TradingPairs
	if len(pairNames) == 0 {
		pairNames = defaultPairs
	}
	for _, name := range pairNames {
		pair, err := entity.PairFromString(name)
		if err != nil {
			return Config{}, errors.Wrap(err, "trading_pairs")
		}
		conf.Pairs = append(conf.Pairs, pair)
	}

	return conf, conf.validate()
}

func (c Config) validate() error {
	if c.InitialBalance.LessThanOrEqual(decimal.Zero) {
		return errors.New("initial_balance must be positive")
	}
	if c.MinTrade.LessThanOrEqual(decimal.Zero) {
		return errors.New("min_trade must be positive")
	}
	if c.MaxTrade.LessThan(c.MinTrade) {
		return errors.New("max_trade must not be below min_trade")
	}
	one := decimal.NewFromInt(1)
	if c.MaxPositionFraction.LessThanOrEqual(decimal.Zero) || c.MaxPositionFraction.GreaterThan(one) {
		return errors.New("max_position_size must be in (0, 1]")
	}
	if c.Cooldown <= 0 {
		return errors.New("trade_interval must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	return nil
}

func decimalOrDefault(s, def string) (decimal.Decimal, error) {
	if s == "" {
		s = def
	}
	return decimal.NewFromString(s)
}

func durationOrDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
