package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Limits of a NUMERIC(15,2) column.
const (
	maxIntegerDigits = 13
	maxScale         = 20  // decimal places accepted before the cents check
	maxCoefficient   = 128 // bits
)

var maxAmount = decimal.New(1, maxIntegerDigits)

// checkRange rejects values a balance column cannot hold. It inspects only the
// exponent and coefficient so that it stays cheap for inputs like "1e999999999";
// callers must run it before formatting d.
func checkRange(what string, d decimal.Decimal) error {
	if d.Exponent() > 0 || d.Exponent() < -maxScale || d.Coefficient().BitLen() > maxCoefficient {
		return fmt.Errorf("%s is out of range: %w", what, ErrInvalidArgument)
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%s must have at most %d integer digits: %w", what, maxIntegerDigits, ErrInvalidArgument)
	}
	return nil
}

// hasCents reports whether d fits in two decimal places.
func hasCents(d decimal.Decimal) bool {
	return d.Mul(hundred).Equal(d.Mul(hundred).Floor())
}

// validatePositive rejects amounts that are zero, negative or finer than cents.
func validatePositive(amount decimal.Decimal) error {
	if err := checkRange("amount", amount); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount %s must be greater than zero: %w", amount, ErrInvalidArgument)
	}
	if !hasCents(amount) {
		return fmt.Errorf("amount %s has more than 2 decimal places: %w", amount, ErrInvalidArgument)
	}
	return nil
}

// validateNonZero accepts amounts of either sign.
func validateNonZero(amount decimal.Decimal) error {
	if err := checkRange("amount", amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return fmt.Errorf("amount must not be zero: %w", ErrInvalidArgument)
	}
	if !hasCents(amount) {
		return fmt.Errorf("amount %s has more than 2 decimal places: %w", amount, ErrInvalidArgument)
	}
	return nil
}

// validateOpening allows a zero initial balance but never a negative one.
func validateOpening(amount decimal.Decimal) error {
	if err := checkRange("initial balance", amount); err != nil {
		return err
	}
	if amount.IsNegative() {
		return fmt.Errorf("initial balance %s must not be negative: %w", amount, ErrInvalidArgument)
	}
	if !hasCents(amount) {
		return fmt.Errorf("initial balance %s has more than 2 decimal places: %w", amount, ErrInvalidArgument)
	}
	return nil
}

// DateLayout is the calendar-date format accepted from clients.
const DateLayout = "2006-01-02"

// ParseAmount parses a decimal money amount such as "120.50". Values a balance
// column cannot hold are rejected; sign and cents checks are left to the
// operation.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, ErrInvalidArgument)
	}
	if err := checkRange(fmt.Sprintf("amount %q", s), d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, ErrInvalidArgument)
	}
	return t, nil
}
