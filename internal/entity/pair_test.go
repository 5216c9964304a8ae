package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    Pair
		wantErr bool
	}{
		{input: "BTC-USD", want: Pair{Base: "BTC", Quote: "USD"}},
		{input: "btc-usd", want: Pair{Base: "BTC", Quote: "USD"}},
		{input: "ETH_USDT", want: Pair{Base: "ETH", Quote: "USDT"}},
		{input: " ADA-USD ", want: Pair{Base: "ADA", Quote: "USD"}},
		{input: "BTCUSD", wantErr: true},
		{input: "BTC-", wantErr: true},
		{input: "-USD", wantErr: true},
		{input: "", wantErr: true},
		{input: "A-B-C", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := PairFromString(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPair_String(t *testing.T) {
	p := Pair{Base: "BTC", Quote: "USD"}
	assert.Equal(t, "BTC-USD", p.String())
	assert.Equal(t, "BTCUSD", p.Symbol())
}
