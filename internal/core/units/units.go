// Package units converts between human-readable decimal amounts and the
// integer smallest-unit representation used on chain.
package units

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vietddude/streampay/internal/core/domain"
)

// Decimals is the fixed precision of every amount handled here.
const Decimals = domain.NativeDecimals

// maxBits is the width of a uint256 contract argument.
const maxBits = 256

// plainDecimal admits digits with an optional fraction; exponent forms are rejected.
var plainDecimal = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ToBase parses a decimal amount such as "1.25" into smallest units.
// Negative amounts, exponent notation, amounts finer than Decimals and
// results wider than a uint256 are rejected.
func ToBase(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: %q is negative", domain.ErrInvalidAmount, amount)
	}
	if !plainDecimal.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, amount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, amount)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", domain.ErrInvalidAmount, amount)
	}

	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", domain.ErrInvalidAmount, amount, Decimals)
	}

	v := shifted.BigInt()
	if v.BitLen() > maxBits {
		return nil, fmt.Errorf("%w: %q exceeds %d bits", domain.ErrInvalidAmount, amount, maxBits)
	}
	return v, nil
}

// FromBase formats a smallest-unit integer as a decimal string.
// Whole values keep a single fractional digit ("2.0").
func FromBase(v *big.Int) string {
	if v == nil {
		return "0.0"
	}
	s := decimal.NewFromBigInt(v, -Decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
