// Package setup implements the interactive configuration wizard invoked
// with --setup. It writes a config.yaml the bot can start from.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/scrantonlabs/scranton/internal/entity"
)

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)
)

type fileConfig struct {
	Platform        string   `yaml:"platform"`
	ListenAddr      string   `yaml:"listen_addr"`
	APIKey          string   `yaml:"api_key,omitempty"`
	InitialBalance  string   `yaml:"initial_balance"`
	TradingPairs    []string `yaml:"trading_pairs"`
	MinTrade        string   `yaml:"min_trade"`
	MaxTrade        string   `yaml:"max_trade"`
	MaxPositionSize string   `yaml:"max_position_size"`
	TradeInterval   string   `yaml:"trade_interval"`
	PollInterval    string   `yaml:"poll_interval"`
}

// Run launches the wizard and writes the result to path.
func Run(path string) error {
	platform := "coinbase"
	pairsStr := "BTC-USD, ETH-USD, ADA-USD"
	balanceStr := "10000"
	minTradeStr := "50"
	maxTradeStr := "1000"
	positionSizeStr := "0.2"
	cooldownStr := "30s"
	pollStr := "5s"
	listenAddr := ":5000"
	apiKey := ""
	confirm := false

	fmt.Println(headerStyle.Render("SCRANTON PAPER TRADING SETUP"))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Price feed").
				Options(
					huh.NewOption("Coinbase (live)", "coinbase"),
					huh.NewOption("Binance (live)", "binance"),
					huh.NewOption("Bybit (live)", "bybit"),
					huh.NewOption("Simulator", "simulate"),
				).
				Value(&platform),
			huh.NewInput().
				Title("Trading pairs").
				Description("Comma separated, BASE-QUOTE").
				Value(&pairsStr).
				Validate(validatePairs),
			huh.NewInput().
				Title("Initial balance (USD)").
				Value(&balanceStr).
				Validate(validatePositiveDecimal),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Minimum trade (USD)").
				Value(&minTradeStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Maximum trade (USD)").
				Value(&maxTradeStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Max position fraction of portfolio").
				Description("e.g. 0.2 for 20%").
				Value(&positionSizeStr).
				Validate(validateFraction),
			huh.NewInput().
				Title("Trade cooldown").
				Description("Go duration, e.g. 30s").
				Value(&cooldownStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Decision poll interval").
				Value(&pollStr).
				Validate(validateDuration),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("HTTP listen address").
				Value(&listenAddr),
			huh.NewInput().
				Title("API credential (optional)").
				Value(&apiKey),
			huh.NewConfirm().
				Title(fmt.Sprintf("Write %s?", path)).
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !confirm {
		fmt.Println("aborted, nothing written")
		return nil
	}

	conf := fileConfig{
		Platform:        platform,
		ListenAddr:      listenAddr,
		APIKey:          apiKey,
		InitialBalance:  balanceStr,
		TradingPairs:    splitPairs(pairsStr),
		MinTrade:        minTradeStr,
		MaxTrade:        maxTradeStr,
		MaxPositionSize: positionSizeStr,
		TradeInterval:   cooldownStr,
		PollInterval:    pollStr,
	}

	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s, start the bot with --config %s\n", path, path)
	return nil
}

func splitPairs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validatePairs(s string) error {
	pairs := splitPairs(s)
	if len(pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	for _, p := range pairs {
		if _, err := entity.PairFromString(p); err != nil {
			return err
		}
	}
	return nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number: %s", s)
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateFraction(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number: %s", s)
	}
	if d.LessThanOrEqual(decimal.Zero) || d.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be in (0, 1]")
	}
	return nil
}

func validateDuration(s string) error {
	if _, err := time.ParseDuration(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("not a duration: %s", s)
	}
	return nil
}
