package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"costestimate/estimate"
	"costestimate/services"
)

type catalogResponse struct {
	Divisions []*estimate.Division               `json:"divisions"`
	Units     []services.UnitOption              `json:"units"`
	Preferred map[string][]estimate.MaterialItem `json:"preferredItems"`
}

// HandleCatalog returns the cost code tree, the preferred material items per
// cost code and the units offered for material rows.
func HandleCatalog(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		divisions, configs, err := services.LoadCatalog(app)
		if err != nil {
			log.Printf("catalog: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		h, _ := estimate.Build(divisions, configs, nil)
		preferred := make(map[string][]estimate.MaterialItem)
		for _, c := range configs {
			if len(c.PreferredItems) > 0 {
				preferred[c.ID] = c.PreferredItems
			}
		}

		return e.JSON(http.StatusOK, catalogResponse{
			Divisions: h.Divisions,
			Units:     services.UnitOptions,
			Preferred: preferred,
		})
	}
}

// HandleCatalogTemplate downloads the catalog import template.
func HandleCatalogTemplate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateCatalogTemplate()
		if err != nil {
			log.Printf("catalog_template: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate template")
		}

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", `attachment; filename="Cost_Code_Catalog_Template.xlsx"`)
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}

// HandleCatalogImport validates an uploaded .csv or .xlsx catalog and, when
// every row is valid, upserts it. Validation failures return 422 with the row
// errors.
func HandleCatalogImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ParseCatalogFile(file, header.Filename)
		if err != nil {
			log.Printf("catalog_import: %v", err)
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}
		if len(result.Errors) > 0 {
			SetToast(e, "warning", fmt.Sprintf("%d row(s) have errors", result.ErrorRows))
			return e.JSON(http.StatusUnprocessableEntity, result)
		}

		summary, err := services.ImportCatalog(app, result.Rows)
		if err != nil {
			log.Printf("catalog_import: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		log.Printf("catalog_import: %s imported (%d rows, %d cost codes created, %d updated)",
			header.Filename, result.TotalRows, summary.CostCodesCreated, summary.CostCodesUpdated)
		SetToast(e, "success", fmt.Sprintf("%d cost codes imported", result.TotalRows))
		return e.JSON(http.StatusOK, summary)
	}
}

// HandleCatalogErrorReport turns posted import errors into an Excel download.
func HandleCatalogErrorReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errs []services.ImportError
		if err := json.NewDecoder(e.Request.Body).Decode(&errs); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(errs)
		if err != nil {
			log.Printf("catalog_error_report: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("Catalog_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}
