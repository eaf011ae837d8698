package services

// UnitOption is a unit of measure offered for material item rows.
type UnitOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// UnitOptions lists the units of measure for material items.
var UnitOptions = []UnitOption{
	{"each", "Each"},
	{"lf", "Linear ft"},
	{"sf", "Square ft"},
	{"sy", "Square yd"},
	{"cy", "Cubic yd"},
	{"sheet", "Sheet"},
	{"roll", "Roll"},
	{"box", "Box"},
	{"bag", "Bag"},
	{"bucket", "Bucket"},
	{"gal", "Gallon"},
	{"lb", "Pound"},
	{"ton", "Ton"},
	{"hr", "Hour"},
	{"day", "Day"},
	{"ls", "Lump sum"},
}

// IsKnownUnit reports whether id is one of UnitOptions. An empty id is
// allowed.
func IsKnownUnit(id string) bool {
	if id == "" {
		return true
	}
	for _, u := range UnitOptions {
		if u.ID == id {
			return true
		}
	}
	return false
}
