package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// formatEstimateNumber constructs the estimate number string from components.
func formatEstimateNumber(projectRef string, year, sequence int) string {
	return fmt.Sprintf("EST-%s-%d-%03d", projectRef, year, sequence)
}

// GenerateEstimateNumber creates the next estimate number for a project.
// Format: EST-{project_ref}-{year}-{sequence}
//   - project_ref: project's reference_number (falls back to project ID if empty)
//   - year: calendar year of now
//   - sequence: 3-digit zero-padded, per project per year
func GenerateEstimateNumber(app core.App, projectID string, now time.Time) (string, error) {
	project, err := app.FindRecordById("projects", projectID)
	if err != nil {
		return "", fmt.Errorf("project not found: %w", err)
	}

	projectRef := project.GetString("reference_number")
	if projectRef == "" {
		projectRef = projectID
	}

	prefix := fmt.Sprintf("EST-%s-%d-", projectRef, now.Year())
	existing, err := app.FindRecordsByFilter(
		"estimates",
		"project = {:projectId} && reference_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{
			"projectId": projectID,
			"prefix":    prefix + "%",
		},
	)
	if err != nil {
		existing = nil
	}

	return formatEstimateNumber(projectRef, now.Year(), len(existing)+1), nil
}
