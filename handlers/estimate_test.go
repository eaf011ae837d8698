package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"costestimate/services"
	"costestimate/testhelpers"
)

type estimateFixture struct {
	app      *pocketbase.PocketBase
	catalog  testhelpers.Catalog
	project  *core.Record
	estimate *core.Record
}

func newEstimateFixture(t *testing.T) estimateFixture {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	catalog := testhelpers.CreateTestCatalog(t, app)
	proj := testhelpers.CreateTestProject(t, app, "Handler Project")
	est := testhelpers.CreateTestEstimate(t, app, proj.Id, "Handler Estimate")
	return estimateFixture{app: app, catalog: catalog, project: proj, estimate: est}
}

// request builds a request against an estimate route with the path values
// the router would set.
func (f estimateFixture) request(method, costCodeID, body string) *http.Request {
	path := fmt.Sprintf("/projects/%s/estimates/%s", f.project.Id, f.estimate.Id)
	if costCodeID != "" {
		path += "/cost-codes/" + costCodeID + "/estimate"
	}
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.SetPathValue("projectId", f.project.Id)
	req.SetPathValue("id", f.estimate.Id)
	if costCodeID != "" {
		req.SetPathValue("costCodeId", costCodeID)
	}
	return req
}

func (f estimateFixture) serve(t *testing.T, handler func(*core.RequestEvent) error, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func decodeEstimate(t *testing.T, rec *httptest.ResponseRecorder) estimateResponse {
	t.Helper()
	var resp estimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func TestHandleEstimateView_JSON(t *testing.T) {
	f := newEstimateFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Walls.Id, 300, 50)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Permit.Id, 0, 150)

	rec := f.serve(t, HandleEstimateView(f.app), f.request(http.MethodGet, "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeEstimate(t, rec)
	if resp.ProjectID != f.project.Id || resp.Title != "Handler Estimate" {
		t.Errorf("unexpected header fields: %+v", resp)
	}
	if len(resp.Divisions) != 2 {
		t.Errorf("visible divisions = %d, want 2", len(resp.Divisions))
	}
	if resp.OtherCosts == nil {
		t.Error("expected Other Costs section")
	}
	assertDecimal(t, "main total", resp.Totals.Main.Total, "350")
	assertDecimal(t, "other costs", resp.Totals.OtherCosts.Total, "150")
	assertDecimal(t, "overall", resp.Totals.Overall.Total, "500")
}

func TestHandleEstimateView_HTMXFragment(t *testing.T) {
	f := newEstimateFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Walls.Id, 1000, 150)

	req := f.request(http.MethodGet, "", "")
	req.Header.Set("HX-Request", "true")
	rec := f.serve(t, HandleEstimateView(f.app), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		`id="estimate-totals"`,
		fmt.Sprintf(`data-estimate-id="%s"`, f.estimate.Id),
		"Handler Estimate",
		"$1,150.00",
	)
}

func TestHandleEstimateView_OtherProject(t *testing.T) {
	f := newEstimateFixture(t)
	other := testhelpers.CreateTestProject(t, f.app, "Other Project")

	req := f.request(http.MethodGet, "", "")
	req.SetPathValue("projectId", other.Id)
	rec := f.serve(t, HandleEstimateView(f.app), req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleEstimateView_NotFound(t *testing.T) {
	f := newEstimateFixture(t)

	req := f.request(http.MethodGet, "", "")
	req.SetPathValue("id", "nonexistent")
	rec := f.serve(t, HandleEstimateView(f.app), req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleEstimateCreate(t *testing.T) {
	f := newEstimateFixture(t)
	f.project.Set("reference_number", "HP")
	if err := f.app.Save(f.project); err != nil {
		t.Fatal(err)
	}

	form := url.Values{}
	form.Set("title", "Second Pass")
	req := httptest.NewRequest(http.MethodPost, "/projects/"+f.project.Id+"/estimates", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("projectId", f.project.Id)
	rec := f.serve(t, HandleEstimateCreate(f.app), req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(body["referenceNumber"], "EST-HP-") || !strings.HasSuffix(body["referenceNumber"], "-001") {
		t.Errorf("referenceNumber = %q", body["referenceNumber"])
	}
	testhelpers.AssertHXRedirect(t, rec.Header().Get("HX-Redirect"),
		fmt.Sprintf("/projects/%s/estimates/%s", f.project.Id, body["id"]))

	created, err := f.app.FindRecordById("estimates", body["id"])
	if err != nil {
		t.Fatalf("estimate not saved: %v", err)
	}
	if created.GetString("title") != "Second Pass" || created.GetString("project") != f.project.Id {
		t.Errorf("saved estimate = %v", created)
	}
}

func TestHandleEstimateCreate_Errors(t *testing.T) {
	f := newEstimateFixture(t)

	tests := []struct {
		name    string
		project string
		title   string
		code    int
	}{
		{"missing title", f.project.Id, "", http.StatusBadRequest},
		{"unknown project", "nonexistent", "Title", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			form.Set("title", tt.title)
			req := httptest.NewRequest(http.MethodPost, "/projects/x/estimates", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.SetPathValue("projectId", tt.project)
			rec := f.serve(t, HandleEstimateCreate(f.app), req)

			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestHandleCostCodeEstimate_Methods(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantLabor    string
		wantMaterial string
		wantType     string
	}{
		{"manual", `{"method":"manual","laborAmount":"100","materialAmount":25}`, "100", "25", "manual"},
		{"per room", `{"method":"per-room","amountPerRoom":20}`, "100", "0", "per-room"},
		{"per area", `{"method":"per-area","amountPerArea":"0.5"}`, "1200", "0", "per-area"},
		{"item wise", `{"method":"item-wise","materialItems":[{"name":"Studs","unitId":"each","quantity":"10","lineTotal":"42.5"}]}`, "0", "42.5", "manual"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEstimateFixture(t)
			rec := f.serve(t, HandleCostCodeEstimate(f.app), f.request(http.MethodPost, f.catalog.Walls.Id, tt.body))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			resp := decodeEstimate(t, rec)
			assertDecimal(t, "main labor", resp.Totals.Main.Labor, tt.wantLabor)
			assertDecimal(t, "main material", resp.Totals.Main.Material, tt.wantMaterial)
			if len(resp.Applied) != 1 || resp.Applied[0] != f.catalog.Walls.Id {
				t.Errorf("applied = %v", resp.Applied)
			}

			ctx, err := services.LoadEstimate(f.app, f.estimate.Id)
			if err != nil {
				t.Fatal(err)
			}
			walls, _ := ctx.Session.Node(f.catalog.Walls.Id)
			assertDecimal(t, "saved labor", walls.LaborAmount, tt.wantLabor)
			assertDecimal(t, "saved material", walls.MaterialAmount, tt.wantMaterial)
			if string(walls.EstimationType) != tt.wantType {
				t.Errorf("saved estimation type = %q, want %q", walls.EstimationType, tt.wantType)
			}
		})
	}
}

func TestHandleCostCodeEstimate_Contingency(t *testing.T) {
	f := newEstimateFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Walls.Id, 200, 100)

	// No method: only the contingency changes, using the 10% project default.
	rec := f.serve(t, HandleCostCodeEstimate(f.app),
		f.request(http.MethodPost, f.catalog.Walls.Id, `{"contingencyEnabled":true}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEstimate(t, rec)
	assertDecimal(t, "contingency", resp.Totals.Main.Contingency, "30")
	assertDecimal(t, "main total", resp.Totals.Main.Total, "330")

	rec = f.serve(t, HandleCostCodeEstimate(f.app),
		f.request(http.MethodPost, f.catalog.Walls.Id, `{"contingencyEnabled":true,"contingencyPercentage":"5"}`))
	resp = decodeEstimate(t, rec)
	assertDecimal(t, "override contingency", resp.Totals.Main.Contingency, "15")
}

func TestHandleCostCodeEstimate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target func(testhelpers.Catalog) string
		body   string
		code   int
	}{
		{"invalid JSON", func(c testhelpers.Catalog) string { return c.Walls.Id }, `{"method":`, http.StatusBadRequest},
		{"unknown method", func(c testhelpers.Catalog) string { return c.Walls.Id }, `{"method":"guess"}`, http.StatusUnprocessableEntity},
		{"unknown unit", func(c testhelpers.Catalog) string { return c.Walls.Id }, `{"method":"item-wise","materialItems":[{"unitId":"furlong","lineTotal":1}]}`, http.StatusUnprocessableEntity},
		{"negative labor", func(c testhelpers.Catalog) string { return c.Walls.Id }, `{"method":"manual","laborAmount":-5}`, http.StatusUnprocessableEntity},
		{"unknown cost code", func(testhelpers.Catalog) string { return "nonexistent" }, `{"method":"manual","laborAmount":5}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEstimateFixture(t)
			rec := f.serve(t, HandleCostCodeEstimate(f.app), f.request(http.MethodPost, tt.target(f.catalog), tt.body))
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if rec.Header().Get("HX-Reswap") != "none" {
				t.Error("expected HX-Reswap: none on error")
			}
		})
	}
}

func TestHandleCostCodeEstimate_PerRoomWithoutRooms(t *testing.T) {
	f := newEstimateFixture(t)
	f.project.Set("rooms_count", 0)
	if err := f.app.Save(f.project); err != nil {
		t.Fatal(err)
	}

	rec := f.serve(t, HandleCostCodeEstimate(f.app),
		f.request(http.MethodPost, f.catalog.Walls.Id, `{"method":"per-room","amountPerRoom":20}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "roomsCount") {
		t.Errorf("body = %q, want roomsCount error", rec.Body.String())
	}
}

func TestHandleCostCodeDeleteAndRestore(t *testing.T) {
	f := newEstimateFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Walls.Id, 300, 50)

	rec := f.serve(t, HandleCostCodeDelete(f.app), f.request(http.MethodPost, f.catalog.Walls.Id, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEstimate(t, rec)
	assertDecimal(t, "main total after delete", resp.Totals.Main.Total, "0")
	if len(resp.Deleted) != 1 || resp.Deleted[0] != f.catalog.Walls.Id {
		t.Errorf("deleted = %v", resp.Deleted)
	}

	saved, _ := f.app.FindRecordById("estimates", f.estimate.Id)
	var deleted []string
	if err := json.Unmarshal([]byte(saved.GetString("deleted_cost_code_ids")), &deleted); err != nil || len(deleted) != 1 {
		t.Errorf("persisted deleted ids = %q", saved.GetString("deleted_cost_code_ids"))
	}

	rec = f.serve(t, HandleCostCodeRestore(f.app), f.request(http.MethodPost, f.catalog.Walls.Id, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: expected 200, got %d", rec.Code)
	}
	resp = decodeEstimate(t, rec)
	assertDecimal(t, "main total after restore", resp.Totals.Main.Total, "350")
	if len(resp.Deleted) != 0 {
		t.Errorf("deleted after restore = %v", resp.Deleted)
	}
}

func TestHandleCostCodeDelete_SubSubCostCode(t *testing.T) {
	f := newEstimateFixture(t)
	trusses := testhelpers.CreateTestCostCode(t, f.app, f.catalog.Framing.Id, f.catalog.Roof.Id, "06-121", "Trusses")
	sheathing := testhelpers.CreateTestCostCode(t, f.app, f.catalog.Framing.Id, f.catalog.Roof.Id, "06-122", "Sheathing")
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Walls.Id, 100, 0)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, trusses.Id, 500, 0)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, sheathing.Id, 0, 200)

	rec := f.serve(t, HandleCostCodeDelete(f.app), f.request(http.MethodPost, trusses.Id, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEstimate(t, rec)
	assertDecimal(t, "main labor", resp.Totals.Main.Labor, "100")
	assertDecimal(t, "main material", resp.Totals.Main.Material, "200")
	assertDecimal(t, "main total", resp.Totals.Main.Total, "300")
	for _, dt := range resp.Totals.Divisions {
		if dt.DivisionID == f.catalog.Framing.Id {
			assertDecimal(t, "framing total", dt.Total, "300")
		}
	}
}

func TestHandleCostCodeDelete_UnknownCostCode(t *testing.T) {
	f := newEstimateFixture(t)

	rec := f.serve(t, HandleCostCodeDelete(f.app), f.request(http.MethodPost, "nonexistent", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
