package estimate

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ParseOptionalPercent coerces a form or JSON value into a contingency
// override. nil, empty and non-numeric input all return nil so the project
// default applies; they are never read as zero.
func ParseOptionalPercent(v any) *decimal.Decimal {
	if p, ok := v.(*decimal.Decimal); ok {
		return clonePercent(p)
	}
	if d, ok := v.(decimal.Decimal); ok {
		return &d
	}

	s := strings.TrimSpace(cast.ToString(v))
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// ParseAmount coerces a form or JSON value into an amount. Anything that is
// not a number counts as zero.
func ParseAmount(v any) decimal.Decimal {
	if p := ParseOptionalPercent(v); p != nil {
		return *p
	}
	return decimal.Zero
}
