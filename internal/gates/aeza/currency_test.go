package aeza

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		multiplier string
		round      int32
		want       string
	}{
		{
			name:       "Rounding up to 2 digits",
			value:      "100",
			multiplier: "1.25",
			round:      2,
			want:       "125",
		},
		{
			name:       "Ceil to whole number",
			value:      "33.33",
			multiplier: "0.9",
			round:      0,
			want:       "30",
		},
		{
			name:       "Identity multiplier",
			value:      "250.50",
			multiplier: "1",
			round:      2,
			want:       "250.5",
		},
		{
			name:       "Fraction rounds up not down",
			value:      "1",
			multiplier: "0.011",
			round:      2,
			want:       "0.02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := decimal.RequireFromString(tt.value)
			multiplier := decimal.RequireFromString(tt.multiplier)
			want := decimal.RequireFromString(tt.want)

			got := Convert(value, multiplier, tt.round)
			assert.True(t, want.Equal(got), "Convert() = %s, want %s", got, want)
		})
	}
}

func TestRatesConvert(t *testing.T) {
	rates := Rates{
		"USD": {Multiplier: decimal.RequireFromString("0.011"), Round: 2},
		"RUB": {Multiplier: decimal.NewFromInt(1), Round: 2},
	}

	got, err := rates.Convert(decimal.NewFromInt(1000), "USD")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("11").Equal(got))

	_, err = rates.Convert(decimal.NewFromInt(10), "EUR")
	require.Error(t, err)
}
