package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HandleProjectActivate sets the active project cookie and redirects to the
// project's most recent estimate, or to its settings when it has none.
func HandleProjectActivate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")

		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		setActiveProjectCookie(e, projectID)
		SetToast(e, "success", "Project activated")

		target := "/projects/" + projectID + "/settings"
		latest, err := app.FindRecordsByFilter(
			"estimates",
			"project = {:projectId}",
			"-created", 1, 0,
			map[string]any{"projectId": projectID},
		)
		if err == nil && len(latest) > 0 {
			target = "/projects/" + projectID + "/estimates/" + latest[0].Id
		}

		e.Response.Header().Set("HX-Redirect", target)
		return e.String(http.StatusOK, "OK")
	}
}

// HandleProjectDeactivate clears the active project cookie and redirects to /projects.
func HandleProjectDeactivate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		clearActiveProjectCookie(e)
		SetToast(e, "success", "Project deactivated")

		e.Response.Header().Set("HX-Redirect", "/projects")
		return e.String(http.StatusOK, "OK")
	}
}
