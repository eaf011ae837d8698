package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
)

// MigrateProjectEstimateSettings turns on both the labor and material
// columns for projects created before the column settings existed, which
// show up with every display flag off. Safe to call on every startup.
func MigrateProjectEstimateSettings(app *pocketbase.PocketBase) error {
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("migrate: could not find projects collection: %w", err)
	}

	legacy, err := app.FindRecordsByFilter(
		projectsCol,
		"enable_labor = false && enable_material = false && only_total = false",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query projects: %w", err)
	}
	if len(legacy) == 0 {
		return nil
	}

	log.Printf("migrate: found %d project(s) with no estimate columns enabled", len(legacy))

	for _, project := range legacy {
		project.Set("enable_labor", true)
		project.Set("enable_material", true)
		if err := app.Save(project); err != nil {
			log.Printf("migrate: failed to update settings for project %s: %v", project.Id, err)
			continue
		}
	}
	return nil
}
