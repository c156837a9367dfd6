package utils

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// RowLabel maps a zero-based row ordinal to A..Z, AA..AZ, BA.. and so on.
func RowLabel(ordinal int) string {
	label := ""
	for n := ordinal + 1; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return label
}

// SplitSeatLabel splits "AB12" into ("AB", 12).
func SplitSeatLabel(label string) (string, int, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	i := strings.IndexFunc(label, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return "", 0, false
	}
	for _, r := range label[:i] {
		if r < 'A' || r > 'Z' {
			return "", 0, false
		}
	}
	n, err := strconv.Atoi(label[i:])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return label[:i], n, true
}

// FormatMoney renders an amount with two decimal places
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
