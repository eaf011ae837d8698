package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"costestimate/services"
)

// HandleEstimateExportExcel returns a handler that downloads an estimate as
// an Excel workbook.
func HandleEstimateExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ctx, err := loadProjectEstimate(app, e, "export_excel")
		if ctx == nil {
			return err
		}

		xlsxBytes, err := services.GenerateExcel(services.ExportEstimate(ctx))
		if err != nil {
			log.Printf("export_excel: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.ExportFilename(ctx, "xlsx")))
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}

// HandleEstimateExportPDF returns a handler that downloads an estimate as a
// PDF document.
func HandleEstimateExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ctx, err := loadProjectEstimate(app, e, "export_pdf")
		if ctx == nil {
			return err
		}

		pdfBytes, err := services.GeneratePDF(services.ExportEstimate(ctx))
		if err != nil {
			log.Printf("export_pdf: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate PDF file")
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.ExportFilename(ctx, "pdf")))
		_, err = e.Response.Write(pdfBytes)
		return err
	}
}
