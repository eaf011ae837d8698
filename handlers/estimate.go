package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"costestimate/estimate"
	"costestimate/services"
	"costestimate/views"
)

// estimateResponse is the JSON shape of an estimate view.
type estimateResponse struct {
	ID              string                   `json:"id"`
	ProjectID       string                   `json:"projectId"`
	Title           string                   `json:"title"`
	ReferenceNumber string                   `json:"referenceNumber"`
	Settings        estimate.ProjectSettings `json:"settings"`
	Divisions       []*estimate.Division     `json:"divisions"`
	OtherCosts      *estimate.Division       `json:"otherCosts"`
	Totals          estimate.EstimateTotals  `json:"totals"`
	Applied         []string                 `json:"applied"`
	Deleted         []string                 `json:"deleted"`
}

// loadProjectEstimate loads the estimate named in the path and checks that it
// belongs to the project in the path. On failure it writes the error response
// and returns a nil context.
func loadProjectEstimate(app *pocketbase.PocketBase, e *core.RequestEvent, component string) (*services.EstimateContext, error) {
	projectID := e.Request.PathValue("projectId")
	estimateID := e.Request.PathValue("id")
	if projectID == "" || estimateID == "" {
		return nil, ErrorToast(e, http.StatusBadRequest, "Missing project or estimate ID")
	}

	ctx, err := services.LoadEstimate(app, estimateID)
	if err != nil {
		log.Printf("%s: could not load estimate %s: %v", component, estimateID, err)
		return nil, ErrorToast(e, http.StatusNotFound, "Estimate not found")
	}
	if ctx.Estimate.GetString("project") != projectID {
		log.Printf("%s: estimate %s does not belong to project %s", component, estimateID, projectID)
		return nil, ErrorToast(e, http.StatusNotFound, "Estimate not found")
	}
	return ctx, nil
}

// renderEstimate writes the totals fragment for HTMX requests and the full
// estimate JSON otherwise.
func renderEstimate(e *core.RequestEvent, ctx *services.EstimateContext) error {
	s := ctx.Session
	totals := s.Totals()
	other := s.OtherCosts()

	if e.Request.Header.Get("HX-Request") == "true" {
		return views.EstimateTotals(views.EstimateTotalsData{
			EstimateID:    ctx.Estimate.Id,
			Title:         ctx.Estimate.GetString("title"),
			Settings:      s.Settings,
			Totals:        totals,
			HasOtherCosts: other != nil,
		}).Render(e.Request.Context(), e.Response)
	}

	return e.JSON(http.StatusOK, estimateResponse{
		ID:              ctx.Estimate.Id,
		ProjectID:       ctx.Project.Id,
		Title:           ctx.Estimate.GetString("title"),
		ReferenceNumber: ctx.Estimate.GetString("reference_number"),
		Settings:        s.Settings,
		Divisions:       s.Visible(),
		OtherCosts:      other,
		Totals:          totals,
		Applied:         s.Applied.Sorted(),
		Deleted:         s.Deleted.Sorted(),
	})
}

// estimateErrorToast maps aggregator errors to a status code and toast.
func estimateErrorToast(e *core.RequestEvent, component string, err error) error {
	var ve *estimate.ValidationError
	if errors.As(err, &ve) {
		return ErrorToast(e, http.StatusUnprocessableEntity, ve.Error())
	}
	var nf *estimate.NotFoundError
	if errors.As(err, &nf) {
		return ErrorToast(e, http.StatusNotFound, "Cost code not found")
	}
	log.Printf("%s: %v", component, err)
	return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// HandleEstimateView returns the visible hierarchy and totals of an estimate.
func HandleEstimateView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ctx, err := loadProjectEstimate(app, e, "estimate_view")
		if ctx == nil {
			return err
		}
		return renderEstimate(e, ctx)
	}
}

// HandleEstimateCreate creates an empty estimate for a project with the next
// estimate number.
func HandleEstimateCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing project ID")
		}
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		title := e.Request.FormValue("title")
		if err := validation.Validate(title, validation.Required, validation.Length(1, 200)); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Title "+err.Error())
		}

		ref, err := services.GenerateEstimateNumber(app, projectID, time.Now())
		if err != nil {
			log.Printf("estimate_create: %v", err)
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		col, err := app.FindCollectionByNameOrId("estimates")
		if err != nil {
			log.Printf("estimate_create: could not find estimates collection: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		record := core.NewRecord(col)
		record.Set("project", projectID)
		record.Set("title", title)
		record.Set("reference_number", ref)
		record.Set("deleted_cost_code_ids", []string{})
		if err := app.Save(record); err != nil {
			log.Printf("estimate_create: could not save estimate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to create estimate")
		}

		SetToast(e, "success", "Estimate created")
		e.Response.Header().Set("HX-Redirect", "/projects/"+projectID+"/estimates/"+record.Id)
		return e.JSON(http.StatusCreated, map[string]string{
			"id":              record.Id,
			"referenceNumber": ref,
		})
	}
}

// costCodeEstimateRequest is the body of a cost code estimation. Amounts are
// accepted as JSON numbers or strings.
type costCodeEstimateRequest struct {
	Method                string                  `json:"method"`
	LaborAmount           any                     `json:"laborAmount"`
	MaterialAmount        any                     `json:"materialAmount"`
	AmountPerRoom         any                     `json:"amountPerRoom"`
	AmountPerArea         any                     `json:"amountPerArea"`
	MaterialItems         []estimate.MaterialItem `json:"materialItems"`
	ContingencyEnabled    *bool                   `json:"contingencyEnabled"`
	ContingencyPercentage any                     `json:"contingencyPercentage"`
}

const methodItemWise = "item-wise"

func (r costCodeEstimateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Method, validation.In(
			string(estimate.EstimationManual),
			string(estimate.EstimationPerRoom),
			string(estimate.EstimationPerArea),
			methodItemWise,
		)),
		validation.Field(&r.MaterialItems, validation.Each(validation.By(knownUnit))),
	)
}

func knownUnit(value interface{}) error {
	item, ok := value.(estimate.MaterialItem)
	if !ok || services.IsKnownUnit(item.UnitID) {
		return nil
	}
	return fmt.Errorf("unknown unit %q", item.UnitID)
}

// apply runs the requested estimation method, then the contingency change.
// An empty method only updates contingency.
func (r costCodeEstimateRequest) apply(s *estimate.Session, id string) error {
	var err error
	switch r.Method {
	case string(estimate.EstimationManual):
		err = s.ApplyManual(id, estimate.ParseAmount(r.LaborAmount), estimate.ParseAmount(r.MaterialAmount))
	case string(estimate.EstimationPerRoom):
		err = s.ApplyPerRoom(id, estimate.ParseAmount(r.AmountPerRoom))
	case string(estimate.EstimationPerArea):
		err = s.ApplyPerArea(id, estimate.ParseAmount(r.AmountPerArea))
	case methodItemWise:
		err = s.ApplyItemWise(id, r.MaterialItems)
	}
	if err != nil {
		return err
	}
	if r.ContingencyEnabled != nil {
		return s.SetContingency(id, *r.ContingencyEnabled, estimate.ParseOptionalPercent(r.ContingencyPercentage))
	}
	return nil
}

// HandleCostCodeEstimate applies an estimation method to one cost code and
// saves the estimate.
func HandleCostCodeEstimate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ctx, err := loadProjectEstimate(app, e, "cost_code_estimate")
		if ctx == nil {
			return err
		}
		costCodeID := e.Request.PathValue("costCodeId")

		var body costCodeEstimateRequest
		if err := e.BindBody(&body); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid request body")
		}
		if err := body.Validate(); err != nil {
			return ErrorToast(e, http.StatusUnprocessableEntity, err.Error())
		}

		if err := body.apply(ctx.Session, costCodeID); err != nil {
			return estimateErrorToast(e, "cost_code_estimate", err)
		}
		if err := services.SaveEstimate(app, ctx.Estimate.Id, ctx.Session); err != nil {
			log.Printf("cost_code_estimate: could not save estimate %s: %v", ctx.Estimate.Id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save estimate")
		}

		SetToast(e, "success", "Estimate updated")
		return renderEstimate(e, ctx)
	}
}

// HandleCostCodeDelete hides a cost code and its subtree from the estimate.
func HandleCostCodeDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleDeletedSet(app, "cost_code_delete", "Cost code removed", (*estimate.Session).DeleteNode)
}

// HandleCostCodeRestore brings a deleted cost code back with its values.
func HandleCostCodeRestore(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return handleDeletedSet(app, "cost_code_restore", "Cost code restored", (*estimate.Session).RestoreNode)
}

func handleDeletedSet(app *pocketbase.PocketBase, component, message string, mutate func(*estimate.Session, string) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ctx, err := loadProjectEstimate(app, e, component)
		if ctx == nil {
			return err
		}

		if err := mutate(ctx.Session, e.Request.PathValue("costCodeId")); err != nil {
			return estimateErrorToast(e, component, err)
		}
		if err := services.SaveEstimate(app, ctx.Estimate.Id, ctx.Session); err != nil {
			log.Printf("%s: could not save estimate %s: %v", component, ctx.Estimate.Id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save estimate")
		}

		SetToast(e, "success", message)
		return renderEstimate(e, ctx)
	}
}
