package bill

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
)

// DefaultCurrency is used when no currency code is supplied. Receipts the
// extractor handles are Indonesian delivery-platform receipts, so rupiah.
const DefaultCurrency = money.IDR

// Amount is a monetary value that marshals with currency-aware decimal
// precision instead of raw float formatting.
type Amount struct {
	Value    float64
	Currency string
}

// NewAmount rounds value to the currency's decimal places and wraps it for
// JSON marshaling. An empty currency falls back to DefaultCurrency.
func NewAmount(value float64, currency string) Amount {
	return Amount{
		Value:    RoundAmount(value, currency),
		Currency: currency,
	}
}

// MarshalJSON outputs the value with the currency's decimal places, e.g.
// 12.95 for USD rather than 12.950000762939453.
func (a Amount) MarshalJSON() ([]byte, error) {
	decimals := decimalPlaces(a.Currency)
	return []byte(fmt.Sprintf("%.*f", decimals, a.Value)), nil
}

// RoundAmount rounds a value to the currency's decimal places per ISO 4217,
// so 12.950000762939453 USD becomes 12.95 and minor units are preserved.
func RoundAmount(value float64, currency string) float64 {
	pow := math.Pow(10, float64(decimalPlaces(currency)))
	return math.Round(value*pow) / pow
}

func currencyCode(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || money.GetCurrency(code) == nil {
		return DefaultCurrency
	}
	return code
}

func decimalPlaces(currency string) int {
	c := money.GetCurrency(currencyCode(currency))
	if c == nil {
		return 2
	}
	return c.Fraction
}
