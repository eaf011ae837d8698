package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"zero", "0", "$0.00"},
		{"small integer", "5", "$5.00"},
		{"with decimals", "42.5", "$42.50"},
		{"hundreds", "999.99", "$999.99"},
		{"thousands", "1234.56", "$1,234.56"},
		{"hundred thousands", "123456.78", "$123,456.78"},
		{"millions", "12345678.90", "$12,345,678.90"},
		{"rounds half up", "10.005", "$10.01"},
		{"negative small", "-100", "-$100.00"},
		{"negative thousands", "-250000.5", "-$250,000.50"},
		{"exact thousands boundary", "1000", "$1,000.00"},
		{"exact million boundary", "1000000", "$1,000,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCurrency(decimal.RequireFromString(tt.input))
			if got != tt.expect {
				t.Errorf("FormatCurrency(%s) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := map[string]string{
		"10":   "10%",
		"7.50": "7.5%",
		"0":    "0%",
	}
	for in, want := range tests {
		if got := FormatPercent(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatPercent(%s) = %q, want %q", in, got, want)
		}
	}
}
