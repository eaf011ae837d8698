package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type preferredItemDef struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitID      string  `json:"unitId"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    float64 `json:"quantity"`
}

type costCodeDef struct {
	key       string // seed-local handle used to wire parents and line items
	number    string
	name      string
	preferred []preferredItemDef
	children  []costCodeDef
}

type divisionDef struct {
	number   string
	name     string
	excluded bool
	codes    []costCodeDef
}

type lineItemDef struct {
	costCode       string
	estimationType string
	laborAmount    float64
	materialAmount float64
	perRoom        float64
	perArea        float64
	contingency    bool
	contingencyPct string // empty defers to the project default
}

var seedDivisions = []divisionDef{
	{number: "01", name: "General Requirements", codes: []costCodeDef{
		{key: "supervision", number: "01-100", name: "Site Supervision"},
		{key: "cleanup", number: "01-700", name: "Final Cleaning"},
	}},
	{number: "06", name: "Wood, Plastics, and Composites", codes: []costCodeDef{
		{key: "framing", number: "06-100", name: "Rough Carpentry", children: []costCodeDef{
			{key: "walls", number: "06-110", name: "Wall Framing"},
			{key: "roof", number: "06-120", name: "Roof Framing", children: []costCodeDef{
				{key: "trusses", number: "06-121", name: "Trusses"},
				{key: "sheathing", number: "06-122", name: "Roof Sheathing", preferred: []preferredItemDef{
					{Name: "OSB 7/16\"", Description: "4x8 sheathing panel", UnitID: "sheet", UnitPrice: 18.75, Quantity: 60},
				}},
			}},
		}},
		{key: "millwork", number: "06-400", name: "Architectural Woodwork"},
	}},
	{number: "09", name: "Finishes", codes: []costCodeDef{
		{key: "drywall", number: "09-250", name: "Gypsum Board", preferred: []preferredItemDef{
			{Name: "Drywall 1/2\"", Description: "4x12 regular board", UnitID: "sheet", UnitPrice: 16.40, Quantity: 120},
			{Name: "Joint compound", Description: "All-purpose, 4.5 gal", UnitID: "bucket", UnitPrice: 21.90, Quantity: 8},
		}},
		{key: "paint", number: "09-900", name: "Painting"},
	}},
	{number: "16", name: "Electrical", codes: []costCodeDef{
		{key: "wiring", number: "16-100", name: "Branch Wiring", preferred: []preferredItemDef{
			{Name: "Romex 12/2", Description: "250 ft roll", UnitID: "roll", UnitPrice: 85.50, Quantity: 4},
			{Name: "Device box", Description: "Single gang", UnitID: "each", UnitPrice: 2.25, Quantity: 10},
		}},
		{key: "fixtures", number: "16-500", name: "Lighting Fixtures"},
	}},
	{number: "90", name: "Permits and Fees", excluded: true, codes: []costCodeDef{
		{key: "permit", number: "90-100", name: "Building Permit"},
		{key: "inspections", number: "90-200", name: "Inspection Fees"},
	}},
}

var seedLineItems = []lineItemDef{
	{costCode: "supervision", estimationType: "manual", laborAmount: 4800},
	{costCode: "walls", estimationType: "per-area", perArea: 1.85, materialAmount: 2150},
	{costCode: "trusses", estimationType: "manual", laborAmount: 1600, materialAmount: 5400, contingency: true, contingencyPct: "7.5"},
	{costCode: "drywall", estimationType: "per-room", perRoom: 425},
	{costCode: "wiring", estimationType: "per-room", perRoom: 310, contingency: true},
	{costCode: "permit", estimationType: "manual", materialAmount: 1850},
}

// Seed inserts a sample cost code catalog and one project with an estimate.
// The catalog and the project are each skipped when records already exist,
// so it is safe to call on every startup.
func Seed(app *pocketbase.PocketBase) error {
	// ── catalog ──────────────────────────────────────────────────────
	divisionsCol, err := app.FindCollectionByNameOrId("divisions")
	if err != nil {
		return fmt.Errorf("seed: could not find divisions collection: %w", err)
	}
	costCodesCol, err := app.FindCollectionByNameOrId("cost_codes")
	if err != nil {
		return fmt.Errorf("seed: could not find cost_codes collection: %w", err)
	}

	existingDivisions, err := app.FindAllRecords(divisionsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query divisions: %w", err)
	}

	codeIDs := map[string]*core.Record{}
	divisionNames := map[string]string{}
	if len(existingDivisions) == 0 {
		log.Println("seed: divisions collection is empty, inserting catalog")

		var createCode func(divisionID, parentID string, sortOrder int, d costCodeDef) error
		createCode = func(divisionID, parentID string, sortOrder int, d costCodeDef) error {
			r := core.NewRecord(costCodesCol)
			r.Set("division", divisionID)
			r.Set("parent_id", parentID)
			r.Set("number", d.number)
			r.Set("name", d.name)
			r.Set("sort_order", sortOrder)
			if len(d.preferred) > 0 {
				r.Set("preferred_items", d.preferred)
			}
			if err := app.Save(r); err != nil {
				return fmt.Errorf("seed: could not save cost code %s: %w", d.number, err)
			}
			codeIDs[d.key] = r
			for i, child := range d.children {
				if err := createCode(divisionID, r.Id, i+1, child); err != nil {
					return err
				}
			}
			return nil
		}

		for i, d := range seedDivisions {
			div := core.NewRecord(divisionsCol)
			div.Set("number", d.number)
			div.Set("name", d.name)
			div.Set("exclude_from_main_totals", d.excluded)
			div.Set("sort_order", i+1)
			if err := app.Save(div); err != nil {
				return fmt.Errorf("seed: could not save division %s: %w", d.number, err)
			}
			divisionNames[div.Id] = d.name
			for j, code := range d.codes {
				if err := createCode(div.Id, "", j+1, code); err != nil {
					return err
				}
			}
		}
	}

	// ── sample project ───────────────────────────────────────────────
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}
	existingProjects, err := app.FindAllRecords(projectsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existingProjects) > 0 || len(codeIDs) == 0 {
		return nil
	}

	log.Println("seed: projects collection is empty, inserting sample project")

	project := core.NewRecord(projectsCol)
	project.Set("name", "Maple Street Duplex")
	project.Set("client_name", "Harbor Homes LLC")
	project.Set("reference_number", "MSD-2024")
	project.Set("status", "active")
	project.Set("enable_labor", true)
	project.Set("enable_material", true)
	project.Set("rooms_count", 14)
	project.Set("area_count", 3200)
	project.Set("default_contingency_percent", 10)
	if err := app.Save(project); err != nil {
		return fmt.Errorf("seed: could not save project: %w", err)
	}

	estimatesCol, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		return fmt.Errorf("seed: could not find estimates collection: %w", err)
	}
	est := core.NewRecord(estimatesCol)
	est.Set("project", project.Id)
	est.Set("title", "Preliminary Estimate")
	est.Set("reference_number", "EST-MSD-2024-001")
	est.Set("deleted_cost_code_ids", []string{codeIDs["inspections"].Id})
	if err := app.Save(est); err != nil {
		return fmt.Errorf("seed: could not save estimate: %w", err)
	}

	itemsCol, err := app.FindCollectionByNameOrId("estimate_line_items")
	if err != nil {
		return fmt.Errorf("seed: could not find estimate_line_items collection: %w", err)
	}
	rooms, area := 14.0, 3200.0
	for _, d := range seedLineItems {
		code := codeIDs[d.costCode]
		labor := d.laborAmount
		switch d.estimationType {
		case "per-room":
			labor = d.perRoom * rooms
		case "per-area":
			labor = d.perArea * area
		}

		r := core.NewRecord(itemsCol)
		r.Set("estimate", est.Id)
		r.Set("cost_code_id", code.Id)
		r.Set("parent_id", code.GetString("parent_id"))
		r.Set("division_id", code.GetString("division"))
		r.Set("division_name", divisionNames[code.GetString("division")])
		r.Set("number", code.GetString("number"))
		r.Set("name", code.GetString("name"))
		r.Set("is_sub_cost_code", code.GetString("parent_id") != "")
		r.Set("estimation_type", d.estimationType)
		r.Set("labor_amount", labor)
		r.Set("material_amount", d.materialAmount)
		if d.estimationType == "per-room" {
			r.Set("labor_amount_per_room", d.perRoom)
			r.Set("rooms_count", rooms)
		}
		if d.estimationType == "per-area" {
			r.Set("labor_amount_per_area", d.perArea)
			r.Set("area_count", area)
		}
		r.Set("contingency_enabled", d.contingency)
		r.Set("contingency_percentage", d.contingencyPct)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: could not save line item for %s: %w", d.costCode, err)
		}
	}

	log.Println("seed: sample project and estimate inserted")
	return nil
}
