package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"costestimate/breakdown"
)

type breakdownResponse struct {
	Breakdown breakdown.Breakdown `json:"breakdown"`
	Fields    map[string]string   `json:"fields"`
}

// HandleBreakdownRecalculate reads a financial breakdown from form fields and
// returns it recalculated, both structured and as the flat field map the
// form re-renders from.
func HandleBreakdownRecalculate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		fields := make(map[string]string, len(e.Request.PostForm))
		for key := range e.Request.PostForm {
			fields[key] = e.Request.PostForm.Get(key)
		}

		b, err := breakdown.Unflatten(fields)
		if err != nil {
			return ErrorToast(e, http.StatusUnprocessableEntity, err.Error())
		}

		return e.JSON(http.StatusOK, breakdownResponse{
			Breakdown: b,
			Fields:    breakdown.Flatten(b),
		})
	}
}
