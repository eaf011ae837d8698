package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"costestimate/testhelpers"
)

func TestHandleEstimateExportExcel_Success(t *testing.T) {
	f := newEstimateFixture(t)
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Walls.Id, 300, 50)

	rec := f.serve(t, HandleEstimateExportExcel(f.app), f.request(http.MethodGet, "", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	ct := rec.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="Estimate_Handler-Estimate.xlsx"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer wb.Close()
	if len(wb.GetSheetList()) == 0 {
		t.Error("workbook has no sheets")
	}
}

func TestHandleEstimateExportPDF_Success(t *testing.T) {
	f := newEstimateFixture(t)
	f.estimate.Set("reference_number", "EST-HP-2026-001")
	if err := f.app.Save(f.estimate); err != nil {
		t.Fatal(err)
	}
	testhelpers.CreateTestLineItem(t, f.app, f.estimate.Id, f.catalog.Walls.Id, 300, 50)

	rec := f.serve(t, HandleEstimateExportPDF(f.app), f.request(http.MethodGet, "", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Estimate_EST-HP-2026-001.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("response does not start with the PDF signature")
	}
}

func TestHandleEstimateExport_NotFound(t *testing.T) {
	f := newEstimateFixture(t)

	req := f.request(http.MethodGet, "", "")
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	if err := HandleEstimateExportExcel(f.app)(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	req = f.request(http.MethodGet, "", "")
	req.SetPathValue("projectId", "")
	rec = httptest.NewRecorder()
	if err := HandleEstimateExportPDF(f.app)(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
