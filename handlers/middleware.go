package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

type contextKey string

const ActiveProjectKey contextKey = "activeProject"

const activeProjectCookie = "active_project"

// ActiveProject is the project selected through the active_project cookie.
type ActiveProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetActiveProject extracts the active project from the request context.
func GetActiveProject(r *http.Request) *ActiveProject {
	if val, ok := r.Context().Value(ActiveProjectKey).(*ActiveProject); ok {
		return val
	}
	return nil
}

func setActiveProjectCookie(e *core.RequestEvent, projectID string) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:     activeProjectCookie,
		Value:    projectID,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearActiveProjectCookie(e *core.RequestEvent) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:   activeProjectCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// ActiveProjectMiddleware reads the active_project cookie and stores the
// project in the request context. A cookie naming a missing project is
// cleared.
func ActiveProjectMiddleware(app *pocketbase.PocketBase) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		cookie, err := e.Request.Cookie(activeProjectCookie)
		if err != nil || cookie.Value == "" {
			return e.Next()
		}

		rec, err := app.FindRecordById("projects", cookie.Value)
		if err != nil {
			log.Printf("middleware: active project %s not found, clearing cookie", cookie.Value)
			clearActiveProjectCookie(e)
			return e.Next()
		}

		active := &ActiveProject{ID: rec.Id, Name: rec.GetString("name")}
		ctx := context.WithValue(e.Request.Context(), ActiveProjectKey, active)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}
