// Package money represents monetary amounts as integer centavos.
//
// All arithmetic stays in minor units so summing many entries never drifts the
// way float accumulation does. Rounding happens in exactly two places: when a
// decimal string is parsed and when a percentage rate is applied, both half-up
// to the centavo.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in centavos (hundredths of a real).
type Money int64

// ErrInvalidAmount indicates a string that cannot be parsed as a decimal amount.
var ErrInvalidAmount = errors.New("money: invalid amount")

// Zero is the additive identity, exported for readability at call sites.
const Zero Money = 0

// FromCents wraps a raw centavo count.
func FromCents(c int64) Money {
	return Money(c)
}

// Cents returns the raw centavo count.
func (m Money) Cents() int64 {
	return int64(m)
}

// Add returns m + n.
func (m Money) Add(n Money) Money {
	return m + n
}

// Sub returns m - n. The result may be negative; callers that need a floor use
// SubFloor.
func (m Money) Sub(n Money) Money {
	return m - n
}

// SubFloor returns m - n, floored at zero.
func (m Money) SubFloor(n Money) Money {
	if n >= m {
		return 0
	}
	return m - n
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m < 0
}

// ApplyPercent returns rate percent of m, rounded half-up to the centavo.
// A 10 percent rate on R$ 180,00 yields R$ 18,00 exactly.
func (m Money) ApplyPercent(rate float64) Money {
	raw := float64(m) * rate / 100
	return Money(int64(math.Floor(raw + 0.5)))
}

// Float returns the amount in reais as float64. Display only; never feed the
// result back into arithmetic.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// String renders the amount as a plain decimal with two places ("1234.56").
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatBR renders the amount with Brazilian grouping and comma decimals
// ("1.234,56"), matching how the suite displays currency.
func (m Money) FormatBR() string {
	return ptBR.Sprintf("%.2f", m.Float())
}

// MarshalJSON encodes the amount as a JSON number in reais with two decimal
// places, the shape the REST clients expect.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string. Unlike
// ParseDecimal it admits a sign: aggregate figures such as a net balance or a
// period difference are legitimately negative and must survive a round trip.
// Entry amounts are checked for sign at validation time, not here.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*m = 0
		return nil
	}
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	parsed, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	if negative {
		parsed = -parsed
	}
	*m = parsed
	return nil
}

// ParseDecimal converts a decimal string to centavos. Both dot and comma are
// accepted as decimal separator; a third decimal digit rounds half-up.
// Negative amounts are rejected, zero is allowed.
func ParseDecimal(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = math.MaxInt64 / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return Money(iv*100 + frac), nil
}
