// Package money implements exact fixed-point decimal arithmetic for
// monetary amounts. Values are never represented as binary floating point.
package money

import (
	"fmt"
	"math/big"
	"strings"
)

// Scale is the number of fractional digits every Amount carries.
const Scale = 4

var scaleFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(Scale), nil)

// Amount is a fixed-point decimal with Scale fractional digits, stored as
// an arbitrary-precision integer of minor units (e.g. 1.00 -> 10000).
type Amount struct {
	minor *big.Int
}

// Zero is the additive identity.
func Zero() Amount {
	return Amount{minor: big.NewInt(0)}
}

// FromString parses a decimal string such as "250.00" or "-10" into an
// Amount scaled to Scale fractional digits. Returns an error on malformed
// input or on a fractional part with more than Scale digits.
func FromString(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("money: empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac {
		if len(fracPart) > Scale {
			return Amount{}, fmt.Errorf("money: too many fractional digits in %q", s)
		}
		fracPart = fracPart + strings.Repeat("0", Scale-len(fracPart))
	} else {
		fracPart = strings.Repeat("0", Scale)
	}

	digits := intPart + fracPart
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("money: invalid amount %q", s)
		}
	}

	minor, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Amount{}, fmt.Errorf("money: invalid amount %q", s)
	}
	if neg {
		minor.Neg(minor)
	}
	return Amount{minor: minor}, nil
}

// FromMinorUnits builds an Amount directly from its scaled integer
// representation (used when reading a stored NUMERIC column).
func FromMinorUnits(minor *big.Int) Amount {
	return Amount{minor: new(big.Int).Set(minor)}
}

// String renders the amount with exactly Scale fractional digits.
func (a Amount) String() string {
	if a.minor == nil {
		a.minor = big.NewInt(0)
	}
	neg := a.minor.Sign() < 0
	abs := new(big.Int).Abs(a.minor)

	digits := abs.String()
	if len(digits) <= Scale {
		digits = strings.Repeat("0", Scale-len(digits)+1) + digits
	}
	intPart := digits[:len(digits)-Scale]
	fracPart := digits[len(digits)-Scale:]

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%s", sign, intPart, fracPart)
}

// MinorUnits returns the underlying scaled integer.
func (a Amount) MinorUnits() *big.Int {
	if a.minor == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.minor)
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{minor: new(big.Int).Add(a.minorOrZero(), b.minorOrZero())}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{minor: new(big.Int).Sub(a.minorOrZero(), b.minorOrZero())}
}

// Cmp compares a to b: -1 if a<b, 0 if equal, 1 if a>b.
func (a Amount) Cmp(b Amount) int {
	return a.minorOrZero().Cmp(b.minorOrZero())
}

// IsZero reports whether the amount is exactly 0.
func (a Amount) IsZero() bool {
	return a.minorOrZero().Sign() == 0
}

// IsNegative reports whether the amount is strictly less than 0.
func (a Amount) IsNegative() bool {
	return a.minorOrZero().Sign() < 0
}

// IsPositive reports whether the amount is strictly greater than 0.
func (a Amount) IsPositive() bool {
	return a.minorOrZero().Sign() > 0
}

func (a Amount) minorOrZero() *big.Int {
	if a.minor == nil {
		return big.NewInt(0)
	}
	return a.minor
}

// MarshalJSON serializes the amount as a quoted decimal string, never a
// JSON number, to avoid precision loss in clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON parses a quoted decimal string into an Amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
