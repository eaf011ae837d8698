package services

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"costestimate/estimate"
)

// EstimateContext is a loaded estimate together with its editing session.
type EstimateContext struct {
	Project  *core.Record
	Estimate *core.Record
	Session  *estimate.Session
	// Dropped lists cost code ids of saved line items that are no longer in
	// the catalog.
	Dropped []string
}

// LoadEstimate reads the project settings, the cost code catalog, the saved
// line items and the deleted set of an estimate and builds its session.
func LoadEstimate(app core.App, estimateID string) (*EstimateContext, error) {
	est, err := app.FindRecordById("estimates", estimateID)
	if err != nil {
		return nil, fmt.Errorf("estimate not found: %w", err)
	}
	project, err := app.FindRecordById("projects", est.GetString("project"))
	if err != nil {
		return nil, fmt.Errorf("project not found for estimate %s: %w", estimateID, err)
	}

	divisions, configs, err := LoadCatalog(app)
	if err != nil {
		return nil, err
	}

	itemRecords, err := app.FindRecordsByFilter(
		"estimate_line_items",
		"estimate = {:estimateId}",
		"",
		0, 0,
		map[string]any{"estimateId": estimateID},
	)
	if err != nil {
		return nil, fmt.Errorf("could not query line items: %w", err)
	}
	items := make([]estimate.LineItem, 0, len(itemRecords))
	for _, r := range itemRecords {
		items = append(items, lineItemFromRecord(r))
	}

	var deleted []string
	if err := unmarshalJSONField(est, "deleted_cost_code_ids", &deleted); err != nil {
		return nil, fmt.Errorf("estimate %s: %w", estimateID, err)
	}

	session, dropped := estimate.NewSession(SettingsFromRecord(project), divisions, configs, items, deleted)
	if len(dropped) > 0 {
		log.Printf("estimate_load: estimate %s has %d line item(s) for unknown cost codes: %v",
			estimateID, len(dropped), dropped)
	}

	return &EstimateContext{
		Project:  project,
		Estimate: est,
		Session:  session,
		Dropped:  dropped,
	}, nil
}

// LoadCatalog returns every division and cost code. Cost codes are ordered by
// sort_order and then number, which becomes the order of siblings in the tree.
func LoadCatalog(app core.App) ([]estimate.Division, []estimate.CostCodeConfig, error) {
	divisionRecords, err := app.FindRecordsByFilter("divisions", "id != ''", "sort_order,number", 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("could not query divisions: %w", err)
	}
	divisions := make([]estimate.Division, 0, len(divisionRecords))
	for _, r := range divisionRecords {
		divisions = append(divisions, estimate.Division{
			ID:                    r.Id,
			Number:                r.GetString("number"),
			Name:                  r.GetString("name"),
			ExcludeFromMainTotals: r.GetBool("exclude_from_main_totals"),
		})
	}

	codeRecords, err := app.FindRecordsByFilter("cost_codes", "id != ''", "sort_order,number", 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("could not query cost codes: %w", err)
	}
	configs := make([]estimate.CostCodeConfig, 0, len(codeRecords))
	for _, r := range codeRecords {
		c := estimate.CostCodeConfig{
			ID:         r.Id,
			DivisionID: r.GetString("division"),
			ParentID:   r.GetString("parent_id"),
			Number:     r.GetString("number"),
			Name:       r.GetString("name"),
		}
		if err := unmarshalJSONField(r, "preferred_items", &c.PreferredItems); err != nil {
			log.Printf("estimate_load: ignoring preferred items of cost code %s: %v", r.Id, err)
			c.PreferredItems = nil
		}
		configs = append(configs, c)
	}
	return divisions, configs, nil
}

// SettingsFromRecord reads the estimate settings of a project record.
func SettingsFromRecord(project *core.Record) estimate.ProjectSettings {
	return estimate.ProjectSettings{
		EnableLabor:               project.GetBool("enable_labor"),
		EnableMaterial:            project.GetBool("enable_material"),
		OnlyTotal:                 project.GetBool("only_total"),
		RoomsCount:                decimal.NewFromFloat(project.GetFloat("rooms_count")),
		AreaCount:                 decimal.NewFromFloat(project.GetFloat("area_count")),
		DefaultContingencyPercent: decimal.NewFromFloat(project.GetFloat("default_contingency_percent")),
	}
}

// SaveEstimate persists a session in one transaction. Visible leaves are
// upserted, records whose cost code is no longer a leaf are removed, and
// records of deleted leaves are kept so a later restore gets their values
// back. The deleted set is stored on the estimate.
func SaveEstimate(app core.App, estimateID string, s *estimate.Session) error {
	return app.RunInTransaction(func(txApp core.App) error {
		est, err := txApp.FindRecordById("estimates", estimateID)
		if err != nil {
			return fmt.Errorf("estimate not found: %w", err)
		}
		col, err := txApp.FindCollectionByNameOrId("estimate_line_items")
		if err != nil {
			return fmt.Errorf("could not find estimate_line_items collection: %w", err)
		}

		existing, err := txApp.FindRecordsByFilter(
			col,
			"estimate = {:estimateId}",
			"",
			0, 0,
			map[string]any{"estimateId": estimateID},
		)
		if err != nil {
			return fmt.Errorf("could not query line items: %w", err)
		}
		byCostCode := make(map[string]*core.Record, len(existing))
		for _, r := range existing {
			byCostCode[r.GetString("cost_code_id")] = r
		}

		for _, item := range s.LineItems() {
			r, ok := byCostCode[item.CostCodeID]
			if !ok {
				r = core.NewRecord(col)
				r.Set("estimate", estimateID)
			}
			setLineItemFields(r, item)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("could not save line item %s: %w", item.CostCodeID, err)
			}
		}

		leaves := s.Hierarchy.LeafIDs()
		for costCodeID, r := range byCostCode {
			if leaves.Has(costCodeID) {
				continue
			}
			if err := txApp.Delete(r); err != nil {
				return fmt.Errorf("could not delete stale line item %s: %w", costCodeID, err)
			}
		}

		est.Set("deleted_cost_code_ids", s.Deleted.Sorted())
		if err := txApp.Save(est); err != nil {
			return fmt.Errorf("could not save estimate: %w", err)
		}
		return nil
	})
}

func lineItemFromRecord(r *core.Record) estimate.LineItem {
	item := estimate.LineItem{
		CostCodeID:            r.GetString("cost_code_id"),
		ParentID:              r.GetString("parent_id"),
		Number:                r.GetString("number"),
		Name:                  r.GetString("name"),
		DivisionID:            r.GetString("division_id"),
		DivisionName:          r.GetString("division_name"),
		IsSubCostCode:         r.GetBool("is_sub_cost_code"),
		LaborAmount:           decimal.NewFromFloat(r.GetFloat("labor_amount")),
		MaterialAmount:        decimal.NewFromFloat(r.GetFloat("material_amount")),
		EstimationType:        estimate.EstimationType(r.GetString("estimation_type")),
		LaborAmountPerRoom:    decimal.NewFromFloat(r.GetFloat("labor_amount_per_room")),
		RoomsCount:            decimal.NewFromFloat(r.GetFloat("rooms_count")),
		LaborAmountPerArea:    decimal.NewFromFloat(r.GetFloat("labor_amount_per_area")),
		AreaCount:             decimal.NewFromFloat(r.GetFloat("area_count")),
		ContingencyEnabled:    r.GetBool("contingency_enabled"),
		ContingencyPercentage: estimate.ParseOptionalPercent(r.GetString("contingency_percentage")),
	}
	if err := unmarshalJSONField(r, "material_items", &item.MaterialItems); err != nil {
		log.Printf("estimate_load: ignoring material items of line item %s: %v", r.Id, err)
		item.MaterialItems = nil
	}
	return item
}

func setLineItemFields(r *core.Record, item estimate.LineItem) {
	r.Set("cost_code_id", item.CostCodeID)
	r.Set("parent_id", item.ParentID)
	r.Set("division_id", item.DivisionID)
	r.Set("division_name", item.DivisionName)
	r.Set("number", item.Number)
	r.Set("name", item.Name)
	r.Set("is_sub_cost_code", item.IsSubCostCode)
	r.Set("labor_amount", item.LaborAmount.InexactFloat64())
	r.Set("material_amount", item.MaterialAmount.InexactFloat64())
	r.Set("estimation_type", string(item.EstimationType))
	r.Set("labor_amount_per_room", item.LaborAmountPerRoom.InexactFloat64())
	r.Set("rooms_count", item.RoomsCount.InexactFloat64())
	r.Set("labor_amount_per_area", item.LaborAmountPerArea.InexactFloat64())
	r.Set("area_count", item.AreaCount.InexactFloat64())
	r.Set("material_items", item.MaterialItems)
	r.Set("contingency_enabled", item.ContingencyEnabled)
	if item.ContingencyPercentage == nil {
		r.Set("contingency_percentage", "")
	} else {
		r.Set("contingency_percentage", item.ContingencyPercentage.String())
	}
}

// unmarshalJSONField decodes a JSON field, leaving dest untouched when the
// field is unset.
func unmarshalJSONField(r *core.Record, field string, dest any) error {
	raw := r.GetString(field)
	if raw == "" || raw == "null" {
		return nil
	}
	if err := r.UnmarshalJSONField(field, dest); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}
