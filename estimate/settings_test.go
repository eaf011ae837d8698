package estimate

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestProjectSettings_Validate(t *testing.T) {
	tests := []struct {
		name      string
		settings  ProjectSettings
		wantField string
	}{
		{"defaults", DefaultSettings(), ""},
		{"full", ProjectSettings{RoomsCount: dec("12"), AreaCount: dec("3200.5"), DefaultContingencyPercent: dec("7.5")}, ""},
		{"negative rooms", ProjectSettings{RoomsCount: dec("-1")}, "roomsCount"},
		{"negative area", ProjectSettings{AreaCount: dec("-0.5")}, "areaCount"},
		{"negative default", ProjectSettings{DefaultContingencyPercent: dec("-3")}, "defaultContingencyPercent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			errs, ok := err.(validation.Errors)
			if !ok {
				t.Fatalf("expected validation.Errors, got %T (%v)", err, err)
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("missing error for %q in %v", tt.wantField, errs)
			}
		})
	}
}
