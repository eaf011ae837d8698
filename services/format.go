package services

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency formats an amount as US dollars with thousands separators
// and exactly 2 decimal places (e.g. $1,234.50, -$75.00).
func FormatCurrency(amount decimal.Decimal) string {
	amount = amount.Round(2)
	if amount.IsNegative() {
		return "-" + FormatCurrency(amount.Neg())
	}
	return usd.Sprintf("$%.2f", amount.InexactFloat64())
}

// FormatPercent drops trailing zeros: 10 -> "10%", 7.50 -> "7.5%".
func FormatPercent(p decimal.Decimal) string {
	return p.String() + "%"
}
