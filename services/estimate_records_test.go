package services_test

import (
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/shopspring/decimal"

	"costestimate/services"
	"costestimate/testhelpers"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	app      *pocketbase.PocketBase
	catalog  testhelpers.Catalog
	estimate string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.CreateTestCatalog(t, app)
	proj := testhelpers.CreateTestProject(t, app, "Records")
	est := testhelpers.CreateTestEstimate(t, app, proj.Id, "Records Estimate")
	return fixture{app: app, catalog: catalog, estimate: est.Id}
}

func (f fixture) load(t *testing.T) *services.EstimateContext {
	t.Helper()
	ctx, err := services.LoadEstimate(f.app, f.estimate)
	if err != nil {
		t.Fatalf("LoadEstimate() error = %v", err)
	}
	return ctx
}

func TestLoadEstimate_BuildsSession(t *testing.T) {
	f := newFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate, f.catalog.Walls.Id, 300, 50)

	ctx := f.load(t)
	s := ctx.Session

	if !s.Settings.RoomsCount.Equal(dec("5")) || !s.Settings.DefaultContingencyPercent.Equal(dec("10")) {
		t.Errorf("settings not read from project: %+v", s.Settings)
	}
	if len(s.Hierarchy.Divisions) != 3 {
		t.Fatalf("divisions = %d, want 3", len(s.Hierarchy.Divisions))
	}
	// Divisions are ordered by number: 06, 16, 90.
	if s.Hierarchy.Divisions[0].Number != "06" {
		t.Errorf("first division = %s, want 06", s.Hierarchy.Divisions[0].Number)
	}
	walls, err := s.Node(f.catalog.Walls.Id)
	if err != nil {
		t.Fatalf("walls node: %v", err)
	}
	if !walls.LaborAmount.Equal(dec("300")) {
		t.Errorf("walls labor = %s, want 300", walls.LaborAmount)
	}
	if !s.Applied.Has(f.catalog.Walls.Id) {
		t.Error("loaded amount should mark the node applied")
	}
	if !s.Totals().Main.Total.Equal(dec("350")) {
		t.Errorf("main total = %s, want 350", s.Totals().Main.Total)
	}
}

func TestLoadEstimate_ReportsDroppedItems(t *testing.T) {
	f := newFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate, "retiredcode0001", 10, 0)

	ctx := f.load(t)
	if len(ctx.Dropped) != 1 || ctx.Dropped[0] != "retiredcode0001" {
		t.Errorf("dropped = %v", ctx.Dropped)
	}
}

func TestLoadEstimate_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if _, err := services.LoadEstimate(app, "missing"); err == nil {
		t.Error("expected error for unknown estimate")
	}
}

func TestSaveEstimate_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := f.load(t)
	s := ctx.Session

	if err := s.ApplyPerRoom(f.catalog.Wiring.Id, dec("120.5")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetContingency(f.catalog.Wiring.Id, true, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyManual(f.catalog.Roof.Id, dec("800"), dec("0")); err != nil {
		t.Fatal(err)
	}
	zero := dec("0")
	if err := s.SetContingency(f.catalog.Roof.Id, true, &zero); err != nil {
		t.Fatal(err)
	}
	if err := services.SaveEstimate(f.app, f.estimate, s); err != nil {
		t.Fatalf("SaveEstimate() error = %v", err)
	}

	reloaded := f.load(t).Session
	wiring, _ := reloaded.Node(f.catalog.Wiring.Id)
	if wiring.EstimationType != "per-room" || !wiring.LaborAmountPerRoom.Equal(dec("120.5")) {
		t.Errorf("wiring = %s %s", wiring.EstimationType, wiring.LaborAmountPerRoom)
	}
	if !wiring.LaborAmount.Equal(dec("602.5")) {
		t.Errorf("wiring labor = %s, want 602.5", wiring.LaborAmount)
	}
	if wiring.ContingencyPercentage != nil {
		t.Errorf("deferred percentage reloaded as %s", wiring.ContingencyPercentage)
	}

	roof, _ := reloaded.Node(f.catalog.Roof.Id)
	if roof.ContingencyPercentage == nil || !roof.ContingencyPercentage.IsZero() {
		t.Errorf("explicit zero percentage lost: %v", roof.ContingencyPercentage)
	}

	if !reloaded.Totals().Main.Total.Equal(s.Totals().Main.Total) {
		t.Errorf("total after reload = %s, want %s", reloaded.Totals().Main.Total, s.Totals().Main.Total)
	}
}

func TestSaveEstimate_DeleteKeepsRecordAndRestoreRecoversValues(t *testing.T) {
	f := newFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate, f.catalog.Wiring.Id, 450, 0)

	s := f.load(t).Session
	if err := s.DeleteNode(f.catalog.Wiring.Id); err != nil {
		t.Fatal(err)
	}
	if err := services.SaveEstimate(f.app, f.estimate, s); err != nil {
		t.Fatalf("SaveEstimate() error = %v", err)
	}

	est, _ := f.app.FindRecordById("estimates", f.estimate)
	var deleted []string
	if err := est.UnmarshalJSONField("deleted_cost_code_ids", &deleted); err != nil {
		t.Fatalf("deleted ids: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != f.catalog.Wiring.Id {
		t.Errorf("deleted ids = %v", deleted)
	}

	reloaded := f.load(t).Session
	if !reloaded.Deleted.Has(f.catalog.Wiring.Id) {
		t.Fatal("deleted set not reloaded")
	}
	if !reloaded.Totals().Main.Total.IsZero() {
		t.Errorf("deleted node counted: %s", reloaded.Totals().Main.Total)
	}

	if err := reloaded.RestoreNode(f.catalog.Wiring.Id); err != nil {
		t.Fatal(err)
	}
	if !reloaded.Totals().Main.Labor.Equal(dec("450")) {
		t.Errorf("restored labor = %s, want 450", reloaded.Totals().Main.Labor)
	}
}

func TestSaveEstimate_RemovesNonLeafRecords(t *testing.T) {
	f := newFixture(t)
	// Carpentry has children, so its own record can never reach a total.
	stale := testhelpers.CreateTestLineItem(t, f.app, f.estimate, f.catalog.Carpentry.Id, 999, 0)
	orphan := testhelpers.CreateTestLineItem(t, f.app, f.estimate, "retiredcode0001", 5, 0)

	s := f.load(t).Session
	if err := services.SaveEstimate(f.app, f.estimate, s); err != nil {
		t.Fatalf("SaveEstimate() error = %v", err)
	}

	for _, id := range []string{stale.Id, orphan.Id} {
		if _, err := f.app.FindRecordById("estimate_line_items", id); err == nil {
			t.Errorf("record %s should have been removed", id)
		}
	}

	items, _ := f.app.FindRecordsByFilter(
		"estimate_line_items",
		"estimate = {:id}",
		"", 0, 0,
		map[string]any{"id": f.estimate},
	)
	// One record per visible leaf: wiring, walls, roof, permit.
	if len(items) != 4 {
		t.Errorf("line item records = %d, want 4", len(items))
	}
	for _, r := range items {
		if r.GetString("division_id") == "" || r.GetString("number") == "" {
			t.Errorf("record %s saved without labels", r.Id)
		}
	}
}

func TestSettingsFromRecord(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Settings")
	proj.Set("only_total", true)
	proj.Set("area_count", 1250.5)

	got := services.SettingsFromRecord(proj)
	if !got.OnlyTotal || !got.EnableLabor || !got.EnableMaterial {
		t.Errorf("flags = %+v", got)
	}
	if !got.AreaCount.Equal(dec("1250.5")) {
		t.Errorf("area = %s, want 1250.5", got.AreaCount)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestExportEstimate(t *testing.T) {
	f := newFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate, f.catalog.Wiring.Id, 500, 200)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate, f.catalog.Permit.Id, 0, 150)

	ctx := f.load(t)
	data := services.ExportEstimate(ctx)

	if data.Title != "Records - Records Estimate" {
		t.Errorf("title = %q", data.Title)
	}
	if data.CreatedDate == "" || data.CreatedDate == "-" {
		t.Errorf("created date not set: %q", data.CreatedDate)
	}
	if data.OtherCosts == nil || !data.OtherCosts.Totals.Total.Equal(dec("150")) {
		t.Errorf("other costs section = %+v", data.OtherCosts)
	}
	if !data.Main.Totals.Total.Equal(dec("700")) {
		t.Errorf("main total = %s, want 700", data.Main.Totals.Total)
	}
	if !data.Overall.Total.Equal(dec("850")) {
		t.Errorf("overall = %s, want 850", data.Overall.Total)
	}

	if got := services.ExportFilename(ctx, "pdf"); got != "Estimate_Records-Estimate.pdf" {
		t.Errorf("ExportFilename() = %q", got)
	}
	ctx.Estimate.Set("reference_number", "EST-R/1")
	if got := services.ExportFilename(ctx, "xlsx"); got != "Estimate_EST-R-1.xlsx" {
		t.Errorf("ExportFilename() = %q", got)
	}
}
