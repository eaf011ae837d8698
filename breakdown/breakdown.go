// Package breakdown converts an invoice's financial breakdown (charges, sales
// taxes and totals) to and from the flat field map used by HTML forms.
package breakdown

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Charge struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// SalesTax is a percentage applied to the charges total.
type SalesTax struct {
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

type Totals struct {
	ChargesTotal  decimal.Decimal `json:"chargesTotal"`
	SalesTaxTotal decimal.Decimal `json:"salesTaxTotal"`
	Total         decimal.Decimal `json:"total"`
}

type Breakdown struct {
	Charges    []Charge   `json:"charges"`
	SalesTaxes []SalesTax `json:"salesTaxes"`
	Totals     Totals     `json:"totals"`
}

var hundred = decimal.NewFromInt(100)

// Recalculate derives every tax amount and the totals from the charges and
// tax percentages. Amounts are summed at full precision and rounded to cents
// once.
func (b *Breakdown) Recalculate() {
	charges := decimal.Zero
	for _, c := range b.Charges {
		charges = charges.Add(c.Amount)
	}

	taxes := decimal.Zero
	for i := range b.SalesTaxes {
		amount := charges.Mul(b.SalesTaxes[i].Percentage).Div(hundred)
		b.SalesTaxes[i].Amount = amount.Round(2)
		taxes = taxes.Add(amount)
	}

	b.Totals = Totals{
		ChargesTotal:  charges.Round(2),
		SalesTaxTotal: taxes.Round(2),
		Total:         charges.Add(taxes).Round(2),
	}
}

// Flatten returns the form-field representation of b.
func Flatten(b Breakdown) map[string]string {
	fields := make(map[string]string, 2*len(b.Charges)+3*len(b.SalesTaxes)+3)
	for i, c := range b.Charges {
		fields[fmt.Sprintf("charges[%d].name", i)] = c.Name
		fields[fmt.Sprintf("charges[%d].amount", i)] = c.Amount.StringFixed(2)
	}
	for i, t := range b.SalesTaxes {
		fields[fmt.Sprintf("sales_taxes[%d].name", i)] = t.Name
		fields[fmt.Sprintf("sales_taxes[%d].percentage", i)] = t.Percentage.String()
		fields[fmt.Sprintf("sales_taxes[%d].amount", i)] = t.Amount.StringFixed(2)
	}
	fields["totals.charges_total"] = b.Totals.ChargesTotal.StringFixed(2)
	fields["totals.sales_tax_total"] = b.Totals.SalesTaxTotal.StringFixed(2)
	fields["totals.total"] = b.Totals.Total.StringFixed(2)
	return fields
}

// Unflatten rebuilds a breakdown from form fields. Rows are ordered by index
// with gaps closed, empty numbers count as zero and unknown keys are ignored.
// Tax amounts and totals are always recalculated.
func Unflatten(fields map[string]string) (Breakdown, error) {
	charges := map[int]*Charge{}
	taxes := map[int]*SalesTax{}

	for key, raw := range fields {
		group, index, attr, ok, err := parseKey(key)
		if err != nil {
			return Breakdown{}, err
		}
		if !ok {
			continue
		}

		switch group {
		case "charges":
			c := charges[index]
			if c == nil {
				c = &Charge{}
				charges[index] = c
			}
			switch attr {
			case "name":
				c.Name = strings.TrimSpace(raw)
			case "amount":
				c.Amount, err = parseNumber(key, raw)
			}
		case "sales_taxes":
			t := taxes[index]
			if t == nil {
				t = &SalesTax{}
				taxes[index] = t
			}
			switch attr {
			case "name":
				t.Name = strings.TrimSpace(raw)
			case "percentage":
				t.Percentage, err = parseNumber(key, raw)
			}
		}
		if err != nil {
			return Breakdown{}, err
		}
	}

	var b Breakdown
	for _, i := range sortedKeys(charges) {
		b.Charges = append(b.Charges, *charges[i])
	}
	for _, i := range sortedKeys(taxes) {
		b.SalesTaxes = append(b.SalesTaxes, *taxes[i])
	}
	b.Recalculate()
	return b, nil
}

// parseKey splits "charges[3].amount" into its parts. ok is false for keys
// outside the charges and sales_taxes groups.
func parseKey(key string) (group string, index int, attr string, ok bool, err error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return "", 0, "", false, nil
	}
	group = key[:open]
	if group != "charges" && group != "sales_taxes" {
		return "", 0, "", false, nil
	}

	rest := key[open+1:]
	closing := strings.IndexByte(rest, ']')
	if closing < 0 || !strings.HasPrefix(rest[closing+1:], ".") {
		return "", 0, "", false, fmt.Errorf("malformed breakdown field %q", key)
	}
	index, err = strconv.Atoi(rest[:closing])
	if err != nil || index < 0 {
		return "", 0, "", false, fmt.Errorf("malformed breakdown index in %q", key)
	}
	return group, index, rest[closing+2:], true, nil
}

// parseNumber accepts display formatting such as "$1,250.00".
func parseNumber(key, raw string) (decimal.Decimal, error) {
	s := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return d, nil
}

func sortedKeys[T any](m map[int]*T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
