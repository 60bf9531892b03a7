// Package core provides the expense record and its validation rules.
//
// This file contains functions for parsing monetary amounts from strings
// and summing persisted amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to a non-negative decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Non-numeric input fails with ErrInvalidAmount, negative values with
// ErrNegativeAmount. Zero is allowed.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrNegativeAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid("amount", raw, ErrInvalidAmount)
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	// decimal accepts exponents; amounts typed by hand never need them
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, invalid("amount", raw, ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("amount", raw, ErrInvalidAmount)
	}
	if d.IsNegative() {
		return decimal.Zero, invalid("amount", raw, ErrNegativeAmount)
	}
	return d, nil
}

// Total sums the amount of every record. An empty slice totals zero.
func Total(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Amount))
	}
	return total
}

// FormatAmount renders an amount with two decimal places for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
