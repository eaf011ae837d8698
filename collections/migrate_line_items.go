package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// MigrateLineItemLabels fills the denormalized division and cost code labels
// of line items saved with only a cost_code_id. Items whose cost code no
// longer exists are left untouched. Safe to call on every startup.
func MigrateLineItemLabels(app *pocketbase.PocketBase) error {
	itemsCol, err := app.FindCollectionByNameOrId("estimate_line_items")
	if err != nil {
		return fmt.Errorf("migrate_labels: could not find estimate_line_items collection: %w", err)
	}

	unlabeled, err := app.FindRecordsByFilter(
		itemsCol,
		"division_id = '' || number = ''",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate_labels: could not query line items: %w", err)
	}
	if len(unlabeled) == 0 {
		return nil
	}

	divisions := map[string]*core.Record{}
	for _, item := range unlabeled {
		costCode, err := app.FindRecordById("cost_codes", item.GetString("cost_code_id"))
		if err != nil {
			log.Printf("migrate_labels: line item %s references unknown cost code %q",
				item.Id, item.GetString("cost_code_id"))
			continue
		}

		divisionID := costCode.GetString("division")
		division, ok := divisions[divisionID]
		if !ok {
			division, err = app.FindRecordById("divisions", divisionID)
			if err != nil {
				log.Printf("migrate_labels: cost code %s has no division: %v", costCode.Id, err)
				continue
			}
			divisions[divisionID] = division
		}

		item.Set("division_id", division.Id)
		item.Set("division_name", division.GetString("name"))
		item.Set("number", costCode.GetString("number"))
		item.Set("name", costCode.GetString("name"))
		item.Set("parent_id", costCode.GetString("parent_id"))
		item.Set("is_sub_cost_code", costCode.GetString("parent_id") != "")
		if err := app.Save(item); err != nil {
			log.Printf("migrate_labels: failed to update line item %s: %v", item.Id, err)
		}
	}
	return nil
}
