package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a non-negative decimal amount with at most two decimal places and returns
// its canonical string form.
func ParseAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("amount must not be negative")
	}
	if !d.Equal(d.Truncate(2)) {
		return "", fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	return d.StringFixed(2), nil
}

// ParseBudget validates a min/max pair; max may be empty, meaning "same as min".
func ParseBudget(min, max string) (string, string, error) {
	lo, err := ParseAmount(min)
	if err != nil {
		return "", "", fmt.Errorf("budgetMin: %w", err)
	}
	if strings.TrimSpace(max) == "" {
		return lo, lo, nil
	}
	hi, err := ParseAmount(max)
	if err != nil {
		return "", "", fmt.Errorf("budgetMax: %w", err)
	}
	if decimal.RequireFromString(hi).LessThan(decimal.RequireFromString(lo)) {
		return "", "", fmt.Errorf("budgetMax must be greater than or equal to budgetMin")
	}
	return lo, hi, nil
}

// AmountFloat is used when a decimal string has to be compared inside a store query.
func AmountFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
