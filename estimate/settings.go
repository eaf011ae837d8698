package estimate

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// ProjectSettings gates which estimate columns are shown and supplies the
// project-wide inputs of the estimation methods.
type ProjectSettings struct {
	EnableLabor               bool            `json:"enableLabor"`
	EnableMaterial            bool            `json:"enableMaterial"`
	OnlyTotal                 bool            `json:"onlyTotal"`
	RoomsCount                decimal.Decimal `json:"roomsCount"`
	AreaCount                 decimal.Decimal `json:"areaCount"`
	DefaultContingencyPercent decimal.Decimal `json:"defaultContingencyPercent"`
}

// DefaultSettings shows both labour and material and has no project counts.
func DefaultSettings() ProjectSettings {
	return ProjectSettings{EnableLabor: true, EnableMaterial: true}
}

// Validate rejects negative counts and a negative default percentage.
func (s ProjectSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.RoomsCount, validation.By(nonNegative)),
		validation.Field(&s.AreaCount, validation.By(nonNegative)),
		validation.Field(&s.DefaultContingencyPercent, validation.By(nonNegative)),
	)
}

func nonNegative(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal amount")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}
