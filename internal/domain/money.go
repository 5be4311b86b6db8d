package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a currency amount in integer cents (2-dp BRL).
// All arithmetic on amounts is done on the cent value.
type Money int64

// Cents builds a Money from a raw cent count.
func Cents(c int64) Money { return Money(c) }

// MoneyFromDecimal rounds d to whole cents, half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Round(2).Shift(2).IntPart())
}

// MoneyFromFloat converts a float amount in reais.
func MoneyFromFloat(f float64) Money {
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// ParseMoney parses a dot-decimal amount such as "1234.56".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ErrValidation{Field: "amount", Message: fmt.Sprintf("valor inválido: %q", s)}
	}
	return MoneyFromDecimal(d), nil
}

// Cents returns the raw cent value.
func (m Money) Cents() int64 { return int64(m) }

// Decimal returns m as a decimal amount in reais.
func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

// Float64 returns m in reais. Only for ratios and display.
func (m Money) Float64() float64 { return float64(m) / 100 }

// String formats with two decimals and a dot separator, e.g. "33.33".
func (m Money) String() string { return m.Decimal().StringFixed(2) }

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// MarshalJSON encodes m as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = 0
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return &ErrValidation{Field: "amount", Message: "valor inválido"}
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// Sum adds amounts.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total += v
	}
	return total
}
