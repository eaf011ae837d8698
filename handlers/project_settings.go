package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"costestimate/estimate"
	"costestimate/services"
)

// projectSettingsResponse is the JSON shape of a project's estimate settings.
type projectSettingsResponse struct {
	ProjectID   string                   `json:"projectId"`
	ProjectName string                   `json:"projectName"`
	Settings    estimate.ProjectSettings `json:"settings"`
}

func HandleProjectSettings(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing project ID")
		}

		project, err := app.FindRecordById("projects", projectID)
		if err != nil {
			log.Printf("project_settings: could not find project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		return e.JSON(http.StatusOK, projectSettingsResponse{
			ProjectID:   project.Id,
			ProjectName: project.GetString("name"),
			Settings:    services.SettingsFromRecord(project),
		})
	}
}

// isChecked reads an HTML checkbox: "on" when ticked, or an explicit boolean.
func isChecked(v string) bool {
	return v == "on" || cast.ToBool(v)
}

// HandleProjectSettingsSave updates the column toggles, the project counts
// and the default contingency. Fields missing from the form keep their value.
func HandleProjectSettingsSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing project ID")
		}

		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		project, err := app.FindRecordById("projects", projectID)
		if err != nil {
			log.Printf("project_settings_save: could not find project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		settings := services.SettingsFromRecord(project)
		form := e.Request.PostForm
		// Unticked checkboxes are not submitted, so the toggles are always read.
		settings.EnableLabor = isChecked(form.Get("enable_labor"))
		settings.EnableMaterial = isChecked(form.Get("enable_material"))
		settings.OnlyTotal = isChecked(form.Get("only_total"))
		if form.Has("rooms_count") {
			settings.RoomsCount = estimate.ParseAmount(form.Get("rooms_count"))
		}
		if form.Has("area_count") {
			settings.AreaCount = estimate.ParseAmount(form.Get("area_count"))
		}
		if form.Has("default_contingency_percent") {
			settings.DefaultContingencyPercent = estimate.ParseAmount(form.Get("default_contingency_percent"))
		}

		if err := settings.Validate(); err != nil {
			return ErrorToast(e, http.StatusUnprocessableEntity, err.Error())
		}

		project.Set("enable_labor", settings.EnableLabor)
		project.Set("enable_material", settings.EnableMaterial)
		project.Set("only_total", settings.OnlyTotal)
		project.Set("rooms_count", settings.RoomsCount.InexactFloat64())
		project.Set("area_count", settings.AreaCount.InexactFloat64())
		project.Set("default_contingency_percent", settings.DefaultContingencyPercent.InexactFloat64())
		if err := app.Save(project); err != nil {
			log.Printf("project_settings_save: failed to save project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save settings")
		}

		SetToast(e, "success", "Settings saved")
		return e.JSON(http.StatusOK, projectSettingsResponse{
			ProjectID:   project.Id,
			ProjectName: project.GetString("name"),
			Settings:    settings,
		})
	}
}
