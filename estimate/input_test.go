package estimate

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseOptionalPercent(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string // "" means nil
	}{
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"whitespace", "   ", ""},
		{"garbage", "abc", ""},
		{"zero string", "0", "0"},
		{"decimal string", " 7.5 ", "7.5"},
		{"float", 12.25, "12.25"},
		{"int", 3, "3"},
		{"decimal value", decimal.NewFromInt(4), "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOptionalPercent(tt.input)
			if tt.want == "" {
				if got != nil {
					t.Errorf("ParseOptionalPercent(%v) = %s, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseOptionalPercent(%v) = nil, want %s", tt.input, tt.want)
			}
			assertDecimal(t, "percent", *got, tt.want)
		})
	}
}

func TestParseOptionalPercent_CopiesPointer(t *testing.T) {
	p := dec("5")
	got := ParseOptionalPercent(&p)
	p = dec("6")
	assertDecimal(t, "copy", *got, "5")

	var nilPtr *decimal.Decimal
	if ParseOptionalPercent(nilPtr) != nil {
		t.Error("nil pointer should stay nil")
	}
}

func TestParseAmount(t *testing.T) {
	assertDecimal(t, "empty", ParseAmount(""), "0")
	assertDecimal(t, "garbage", ParseAmount("n/a"), "0")
	assertDecimal(t, "number", ParseAmount("1250.75"), "1250.75")
}
