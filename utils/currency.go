package utils

import (
	"fmt"
	"strings"
)

// FormatCurrencyINR formats an amount as Indian rupees with lakh/crore
// grouping, e.g. 1234567.5 -> "₹12,34,567.50".
func FormatCurrencyINR(amount float64) string {
	formatted := fmt.Sprintf("%.2f", amount)

	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	negative := strings.HasPrefix(integerPart, "-")
	if negative {
		integerPart = integerPart[1:]
	}

	// Indian grouping: last three digits, then pairs
	var groups []string
	if len(integerPart) > 3 {
		groups = append(groups, integerPart[len(integerPart)-3:])
		rest := integerPart[:len(integerPart)-3]
		for len(rest) > 2 {
			groups = append([]string{rest[len(rest)-2:]}, groups...)
			rest = rest[:len(rest)-2]
		}
		if rest != "" {
			groups = append([]string{rest}, groups...)
		}
	} else {
		groups = []string{integerPart}
	}

	result := "₹" + strings.Join(groups, ",") + "." + decimalPart
	if negative {
		result = "-" + result
	}
	return result
}
