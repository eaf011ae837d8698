package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// EstimationTypes are the labor methods a line item can be estimated with.
var EstimationTypes = []string{"manual", "per-room", "per-area"}

// ProjectStatuses are the lifecycle states of a project.
var ProjectStatuses = []string{"active", "on_hold", "completed"}

// Setup programmatically creates/ensures the projects, divisions, cost_codes,
// estimates and estimate_line_items collections exist.
func Setup(app *pocketbase.PocketBase) {
	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "client_name"})
		c.Fields.Add(&core.TextField{Name: "reference_number"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    ProjectStatuses,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.BoolField{Name: "enable_labor"})
		c.Fields.Add(&core.BoolField{Name: "enable_material"})
		c.Fields.Add(&core.BoolField{Name: "only_total"})
		c.Fields.Add(&core.NumberField{Name: "rooms_count"})
		c.Fields.Add(&core.NumberField{Name: "area_count"})
		c.Fields.Add(&core.NumberField{Name: "default_contingency_percent"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	divisions := ensureCollection(app, "divisions", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "number", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.BoolField{Name: "exclude_from_main_totals"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
	})

	ensureCollection(app, "cost_codes", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "division",
			Required:      true,
			CollectionId:  divisions.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		// Empty for top-level cost codes, otherwise the parent cost code id.
		c.Fields.Add(&core.TextField{Name: "parent_id"})
		c.Fields.Add(&core.TextField{Name: "number", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.Fields.Add(&core.JSONField{Name: "preferred_items"})
	})

	estimates := ensureCollection(app, "estimates", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(&core.TextField{Name: "reference_number"})
		c.Fields.Add(&core.JSONField{Name: "deleted_cost_code_ids"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "estimate_line_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "estimate",
			Required:      true,
			CollectionId:  estimates.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "cost_code_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "parent_id"})
		c.Fields.Add(&core.TextField{Name: "division_id"})
		c.Fields.Add(&core.TextField{Name: "division_name"})
		c.Fields.Add(&core.TextField{Name: "number"})
		c.Fields.Add(&core.TextField{Name: "name"})
		c.Fields.Add(&core.BoolField{Name: "is_sub_cost_code"})
		c.Fields.Add(&core.NumberField{Name: "labor_amount"})
		c.Fields.Add(&core.NumberField{Name: "material_amount"})
		c.Fields.Add(&core.SelectField{
			Name:      "estimation_type",
			Required:  true,
			Values:    EstimationTypes,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "labor_amount_per_room"})
		c.Fields.Add(&core.NumberField{Name: "rooms_count"})
		c.Fields.Add(&core.NumberField{Name: "labor_amount_per_area"})
		c.Fields.Add(&core.NumberField{Name: "area_count"})
		c.Fields.Add(&core.JSONField{Name: "material_items"})
		c.Fields.Add(&core.BoolField{Name: "contingency_enabled"})
		// Empty means the project default applies; "0" is an explicit zero.
		c.Fields.Add(&core.TextField{Name: "contingency_percentage"})
		c.AddIndex("idx_estimate_line_items_cost_code", true, "estimate, cost_code_id", "")
	})
}

// ensureCollection returns the named collection, creating it with the fields
// added by addFields when it does not exist yet.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("collections: %q already exists, skipping creation", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("collections: failed to create %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
