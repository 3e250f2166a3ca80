package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a stored amount into a decimal. Legacy rows may hold
// strings with currency symbols or thousands separators, floats or integers.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch a := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("amount is null")
	case decimal.Decimal:
		return a, nil
	case int64:
		return decimal.NewFromInt(a), nil
	case int:
		return decimal.NewFromInt(int64(a)), nil
	case float64:
		return decimal.NewFromFloat(a), nil
	case float32:
		return decimal.NewFromFloat32(a), nil
	case []byte:
		return parseAmountString(string(a))
	case string:
		return parseAmountString(a)
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount encoding %T", v)
	}
}

var (
	amountToken   = regexp.MustCompile(`[-+]?\d[\d,]*(?:\.\d+)?`)
	groupedAmount = regexp.MustCompile(`^[-+]?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// parseAmountString reads the single numeric run in s. Text around it is
// ignored; more than one run or misplaced thousands separators are rejected.
func parseAmountString(s string) (decimal.Decimal, error) {
	tokens := amountToken.FindAllString(s, -1)
	switch len(tokens) {
	case 0:
		return decimal.Zero, fmt.Errorf("amount %q has no digits", s)
	case 1:
	default:
		return decimal.Zero, fmt.Errorf("amount %q is ambiguous", s)
	}
	token := tokens[0]
	if strings.Contains(token, ",") {
		if !groupedAmount.MatchString(token) {
			return decimal.Zero, fmt.Errorf("amount %q has misplaced separators", s)
		}
		token = strings.ReplaceAll(token, ",", "")
	}
	return decimal.NewFromString(token)
}
