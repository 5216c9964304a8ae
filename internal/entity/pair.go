package entity

import (
	"fmt"
	"strings"
)

// Pair identifies a tradable currency pair, e.g. BTC-USD.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string {
	return fmt.Sprintf("%s-%s", p.Base, p.Quote)
}

// Symbol returns the concatenated exchange symbol form, e.g. BTCUSD.
func (p Pair) Symbol() string {
	return p.Base + p.Quote
}

// PairFromString parses a pair in BASE-QUOTE form. BASE_QUOTE is accepted too.
func PairFromString(s string) (Pair, error) {
	sep := "-"
	if !strings.Contains(s, sep) {
		sep = "_"
	}
	parts := strings.Split(strings.TrimSpace(s), sep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("invalid pair %q, expected BASE-QUOTE", s)
	}
	return Pair{Base: strings.ToUpper(parts[0]), Quote: strings.ToUpper(parts[1])}, nil
}
