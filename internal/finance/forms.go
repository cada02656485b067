package finance

import (
	"fmt"
	"paycheck-tracker/internal/domain"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a money amount typed by a user. A comma is accepted as the
// decimal separator. Empty, negative or malformed input is ErrInvalidAmount.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, text)
	}
	if d.IsNegative() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}

// ParseDay reads a day of month in [1,31].
func ParseDay(text string) (int, error) {
	day, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || !domain.ValidDay(day) {
		return 0, domain.ErrInvalidDay
	}
	return day, nil
}
