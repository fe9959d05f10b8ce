package utils

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// maxRawDigits bounds the size of a raw amount; u64 has 20 digits.
const maxRawDigits = 40

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountTooLarge = errors.New("amount does not fit in 64 bits")
)

// ToRawAmount converts a human decimal string to integer base units:
// round(human * 10^decimals), computed without floating point.
func ToRawAmount(human string, decimals uint8) (*big.Int, error) {
	human = strings.TrimSpace(human)
	if human == "" {
		return nil, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(human)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAmount, "parse %q", human)
	}
	if !d.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q is not positive", human)
	}

	// Magnitude is checked before shifting so huge exponents never reach big.Int.
	magnitude := int64(len(d.Coefficient().String())) + int64(d.Exponent()) + int64(decimals)
	if magnitude > maxRawDigits {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q is too large", human)
	}
	if magnitude < 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q rounds to zero base units", human)
	}

	raw := d.Shift(int32(decimals)).Round(0).BigInt()
	if raw.Sign() <= 0 {
		// positive input below the smallest unit
		return nil, errors.Wrapf(ErrInvalidAmount, "%q rounds to zero base units", human)
	}
	return raw, nil
}

// ToRawUint64 is ToRawAmount for ledgers that carry amounts as u64.
func ToRawUint64(human string, decimals uint8) (uint64, error) {
	raw, err := ToRawAmount(human, decimals)
	if err != nil {
		return 0, err
	}
	if !raw.IsUint64() {
		return 0, ErrAmountTooLarge
	}
	return raw.Uint64(), nil
}

// ToDisplayAmount returns raw / 10^decimals.
func ToDisplayAmount(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ShortID abbreviates long identifiers such as mints: "So1111…111112".
func ShortID(id string, head, tail int) string {
	if len(id) <= head+tail {
		return id
	}
	return id[:head] + "…" + id[len(id)-tail:]
}
