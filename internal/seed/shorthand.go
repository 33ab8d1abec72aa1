package seed

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// ParseShorthand reads menu-board prices such as "22K", "1,5K" or "3000".
// A trailing K multiplies by a thousand; the comma is a decimal separator.
// The result must be a non-negative whole rupiah amount.
func ParseShorthand(s string) (int64, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("empty price")
	}

	scale := decimal.NewFromInt(1)
	if strings.HasSuffix(raw, "K") {
		scale = thousand
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "K"))
	}
	raw = strings.ReplaceAll(raw, ",", ".")

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	amount = amount.Mul(scale)
	if amount.IsNegative() {
		return 0, fmt.Errorf("price %q is negative", s)
	}
	if !amount.Equal(amount.Truncate(0)) {
		return 0, fmt.Errorf("price %q is not a whole rupiah amount", s)
	}
	return amount.IntPart(), nil
}
