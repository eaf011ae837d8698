// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"costestimate/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: t.TempDir(),
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestProject creates an active project that shows labor and material
// and uses 5 rooms, 2400 area units and a 10% default contingency.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("failed to find projects collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("status", "active")
	record.Set("enable_labor", true)
	record.Set("enable_material", true)
	record.Set("rooms_count", 5)
	record.Set("area_count", 2400)
	record.Set("default_contingency_percent", 10)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}

	return record
}

// CreateTestDivision creates a catalog division.
func CreateTestDivision(t *testing.T, app *pocketbase.PocketBase, number, name string, excluded bool) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("divisions")
	if err != nil {
		t.Fatalf("failed to find divisions collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("number", number)
	record.Set("name", name)
	record.Set("exclude_from_main_totals", excluded)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test division: %v", err)
	}

	return record
}

// CreateTestCostCode creates a catalog cost code. parentID is empty for a
// top-level cost code.
func CreateTestCostCode(t *testing.T, app *pocketbase.PocketBase, divisionID, parentID, number, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("cost_codes")
	if err != nil {
		t.Fatalf("failed to find cost_codes collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("division", divisionID)
	record.Set("parent_id", parentID)
	record.Set("number", number)
	record.Set("name", name)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test cost code: %v", err)
	}

	return record
}

// CreateTestEstimate creates an estimate linked to a project.
func CreateTestEstimate(t *testing.T, app *pocketbase.PocketBase, projectID, title string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		t.Fatalf("failed to find estimates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("title", title)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test estimate: %v", err)
	}

	return record
}

// CreateTestLineItem creates a manual line item for a cost code.
func CreateTestLineItem(t *testing.T, app *pocketbase.PocketBase, estimateID, costCodeID string, labor, material float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_line_items")
	if err != nil {
		t.Fatalf("failed to find estimate_line_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("cost_code_id", costCodeID)
	record.Set("estimation_type", "manual")
	record.Set("labor_amount", labor)
	record.Set("material_amount", material)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test line item: %v", err)
	}

	return record
}

// Catalog is a small division and cost code tree shared by service and
// handler tests.
//
//	16 Electrical
//	  16-100 Wiring              (leaf)
//	06 Framing
//	  06-100 Rough Carpentry
//	    06-110 Walls             (leaf)
//	    06-120 Roof              (leaf)
//	90 Permits                   (excluded from main totals)
//	  90-100 Building Permit     (leaf)
type Catalog struct {
	Electrical, Framing, Permits   *core.Record
	Wiring, Carpentry, Walls, Roof *core.Record
	Permit                         *core.Record
}

// CreateTestCatalog inserts the Catalog tree.
func CreateTestCatalog(t *testing.T, app *pocketbase.PocketBase) Catalog {
	t.Helper()

	var c Catalog
	c.Electrical = CreateTestDivision(t, app, "16", "Electrical", false)
	c.Framing = CreateTestDivision(t, app, "06", "Framing", false)
	c.Permits = CreateTestDivision(t, app, "90", "Permits", true)

	c.Wiring = CreateTestCostCode(t, app, c.Electrical.Id, "", "16-100", "Wiring")
	c.Carpentry = CreateTestCostCode(t, app, c.Framing.Id, "", "06-100", "Rough Carpentry")
	c.Walls = CreateTestCostCode(t, app, c.Framing.Id, c.Carpentry.Id, "06-110", "Walls")
	c.Roof = CreateTestCostCode(t, app, c.Framing.Id, c.Carpentry.Id, "06-120", "Roof")
	c.Permit = CreateTestCostCode(t, app, c.Permits.Id, "", "90-100", "Building Permit")
	return c
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHXRedirect checks the HX-Redirect header value.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
