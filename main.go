package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"costestimate/collections"
	"costestimate/commands"
	"costestimate/handlers"
)

func main() {
	app := pocketbase.New()

	commands.Register(app)

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateProjectEstimateSettings(app); err != nil {
			log.Printf("Warning: project settings migration failed: %v", err)
		}
		if err := collections.MigrateLineItemLabels(app); err != nil {
			log.Printf("Warning: line item label migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		// Apply active project middleware globally
		se.Router.BindFunc(handlers.ActiveProjectMiddleware(app))

		// ── Project activation ───────────────────────────────────
		se.Router.POST("/projects/{id}/activate", handlers.HandleProjectActivate(app))
		se.Router.POST("/projects/deactivate", handlers.HandleProjectDeactivate(app))

		// ── Projects ─────────────────────────────────────────────
		se.Router.GET("/projects", handlers.HandleProjectList(app))
		se.Router.POST("/projects", handlers.HandleProjectSave(app))
		se.Router.DELETE("/projects/{id}", handlers.HandleProjectDelete(app))
		se.Router.GET("/projects/{id}/settings", handlers.HandleProjectSettings(app))
		se.Router.POST("/projects/{id}/settings", handlers.HandleProjectSettingsSave(app))

		// ── Estimates ────────────────────────────────────────────
		se.Router.POST("/projects/{projectId}/estimates", handlers.HandleEstimateCreate(app))
		se.Router.GET("/projects/{projectId}/estimates/{id}/export/excel", handlers.HandleEstimateExportExcel(app))
		se.Router.GET("/projects/{projectId}/estimates/{id}/export/pdf", handlers.HandleEstimateExportPDF(app))
		se.Router.POST("/projects/{projectId}/estimates/{id}/cost-codes/{costCodeId}/estimate", handlers.HandleCostCodeEstimate(app))
		se.Router.POST("/projects/{projectId}/estimates/{id}/cost-codes/{costCodeId}/delete", handlers.HandleCostCodeDelete(app))
		se.Router.POST("/projects/{projectId}/estimates/{id}/cost-codes/{costCodeId}/restore", handlers.HandleCostCodeRestore(app))
		se.Router.GET("/projects/{projectId}/estimates/{id}", handlers.HandleEstimateView(app))

		// ── Catalog ──────────────────────────────────────────────
		se.Router.GET("/catalog", handlers.HandleCatalog(app))
		se.Router.GET("/catalog/template", handlers.HandleCatalogTemplate(app))
		se.Router.POST("/catalog/import", handlers.HandleCatalogImport(app))
		se.Router.POST("/catalog/import/errors", handlers.HandleCatalogErrorReport(app))

		// ── Financial breakdown ──────────────────────────────────
		se.Router.POST("/api/breakdown", handlers.HandleBreakdownRecalculate(app))

		// Redirect home to the active project's settings or the project list
		se.Router.GET("/", func(e *core.RequestEvent) error {
			if active := handlers.GetActiveProject(e.Request); active != nil {
				return e.Redirect(http.StatusFound, "/projects/"+active.ID+"/settings")
			}
			return e.Redirect(http.StatusFound, "/projects")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
