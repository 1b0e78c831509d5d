package aeza

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Convert преобразует сумму из базовой валюты по формуле
// ceil(value * multiplier * R) / R, где R = 10^round.
func Convert(value, multiplier decimal.Decimal, round int32) decimal.Decimal {
	r := decimal.New(1, round)
	return value.Mul(multiplier).Mul(r).Ceil().Div(r)
}

// Convert преобразует сумму в валюту с кодом currency.
func (r Rates) Convert(value decimal.Decimal, currency string) (decimal.Decimal, error) {
	rate, ok := r[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("неизвестная валюта: %q", currency)
	}
	return Convert(value, rate.Multiplier, rate.Round), nil
}
