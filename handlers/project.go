package handlers

import (
	"log"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"costestimate/collections"
	"costestimate/estimate"
	"costestimate/services"
)

type projectSummary struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	ClientName      string                   `json:"clientName"`
	ReferenceNumber string                   `json:"referenceNumber"`
	Status          string                   `json:"status"`
	Settings        estimate.ProjectSettings `json:"settings"`
	Estimates       []estimateSummary        `json:"estimates"`
}

type estimateSummary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ReferenceNumber string `json:"referenceNumber"`
}

// HandleProjectList returns every project with its estimates, newest first.
func HandleProjectList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projects, err := app.FindRecordsByFilter("projects", "id != ''", "-created", 0, 0)
		if err != nil {
			log.Printf("project_list: could not query projects: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		result := make([]projectSummary, 0, len(projects))
		for _, p := range projects {
			estimates, err := app.FindRecordsByFilter(
				"estimates",
				"project = {:projectId}",
				"-created", 0, 0,
				map[string]any{"projectId": p.Id},
			)
			if err != nil {
				log.Printf("project_list: could not query estimates of %s: %v", p.Id, err)
				estimates = nil
			}

			summary := projectSummary{
				ID:              p.Id,
				Name:            p.GetString("name"),
				ClientName:      p.GetString("client_name"),
				ReferenceNumber: p.GetString("reference_number"),
				Status:          p.GetString("status"),
				Settings:        services.SettingsFromRecord(p),
				Estimates:       make([]estimateSummary, 0, len(estimates)),
			}
			for _, est := range estimates {
				summary.Estimates = append(summary.Estimates, estimateSummary{
					ID:              est.Id,
					Title:           est.GetString("title"),
					ReferenceNumber: est.GetString("reference_number"),
				})
			}
			result = append(result, summary)
		}

		return e.JSON(http.StatusOK, result)
	}
}

// projectForm is the create form. Counts and the default contingency are
// optional and start at zero.
type projectForm struct {
	Name            string
	ClientName      string
	ReferenceNumber string
	Status          string
}

func (f projectForm) Validate() error {
	statuses := make([]any, len(collections.ProjectStatuses))
	for i, s := range collections.ProjectStatuses {
		statuses[i] = s
	}
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Status, validation.In(statuses...)),
	)
}

// HandleProjectSave creates a project. Labor and material columns start
// enabled.
func HandleProjectSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		form := projectForm{
			Name:            strings.TrimSpace(e.Request.FormValue("name")),
			ClientName:      strings.TrimSpace(e.Request.FormValue("client_name")),
			ReferenceNumber: strings.TrimSpace(e.Request.FormValue("reference_number")),
			Status:          strings.TrimSpace(e.Request.FormValue("status")),
		}
		if form.Status == "" {
			form.Status = "active"
		}
		if err := form.Validate(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		existing, _ := app.FindRecordsByFilter(
			"projects",
			"name = {:name}",
			"", 1, 0,
			map[string]any{"name": form.Name},
		)
		if len(existing) > 0 {
			return ErrorToast(e, http.StatusConflict, "A project with this name already exists")
		}

		settings := estimate.DefaultSettings()
		settings.RoomsCount = estimate.ParseAmount(e.Request.FormValue("rooms_count"))
		settings.AreaCount = estimate.ParseAmount(e.Request.FormValue("area_count"))
		settings.DefaultContingencyPercent = estimate.ParseAmount(e.Request.FormValue("default_contingency_percent"))
		if err := settings.Validate(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		col, err := app.FindCollectionByNameOrId("projects")
		if err != nil {
			log.Printf("project_create: could not find projects collection: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		record := core.NewRecord(col)
		record.Set("name", form.Name)
		record.Set("client_name", form.ClientName)
		record.Set("reference_number", form.ReferenceNumber)
		record.Set("status", form.Status)
		record.Set("enable_labor", settings.EnableLabor)
		record.Set("enable_material", settings.EnableMaterial)
		record.Set("only_total", settings.OnlyTotal)
		record.Set("rooms_count", settings.RoomsCount.InexactFloat64())
		record.Set("area_count", settings.AreaCount.InexactFloat64())
		record.Set("default_contingency_percent", settings.DefaultContingencyPercent.InexactFloat64())

		if err := app.Save(record); err != nil {
			log.Printf("project_create: could not save project: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Project created successfully")
		e.Response.Header().Set("HX-Redirect", "/projects/"+record.Id+"/settings")
		return e.JSON(http.StatusCreated, map[string]string{"id": record.Id})
	}
}

// HandleProjectDelete deletes a project. Its estimates and their line items
// go with it through the cascading relations.
func HandleProjectDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing project ID")
		}

		project, err := app.FindRecordById("projects", projectID)
		if err != nil {
			log.Printf("project_delete: could not find project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		if err := app.Delete(project); err != nil {
			log.Printf("project_delete: failed to delete project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to delete project")
		}
		log.Printf("project_delete: deleted project %s", projectID)

		if active := GetActiveProject(e.Request); active != nil && active.ID == projectID {
			clearActiveProjectCookie(e)
		}

		SetToast(e, "success", "Project deleted")
		e.Response.Header().Set("HX-Redirect", "/projects")
		return e.NoContent(http.StatusNoContent)
	}
}
