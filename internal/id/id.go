// Package id parses the numeric row identifiers that clients pass around.
package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cleared-dev/teller/internal/ledger"
)

// Parse parses a positive row ID. what names the entity for the error message,
// e.g. "account". Errors wrap ledger.ErrInvalidArgument.
func Parse(what, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%s ID is required: %w", what, ledger.ErrInvalidArgument)
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID %q: %w", what, s, ledger.ErrInvalidArgument)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s ID %d must be positive: %w", what, n, ledger.ErrInvalidArgument)
	}
	return n, nil
}

// Format renders an ID the way Parse accepts it back.
func Format(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Label renders an ID for display, e.g. "#42".
func Label(n int64) string {
	return "#" + Format(n)
}
