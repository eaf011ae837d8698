// Package commands adds estimate maintenance subcommands to the PocketBase
// command line.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"

	"costestimate/collections"
	"costestimate/services"
)

// Register attaches the export-estimate and import-catalog commands to the
// app's root command.
func Register(app *pocketbase.PocketBase) {
	app.RootCmd.AddCommand(newExportEstimateCmd(app), newImportCatalogCmd(app))
}

type exportOptions struct {
	estimateID string
	format     string
	out        string
}

func newExportEstimateCmd(app *pocketbase.PocketBase) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export-estimate",
		Short: "Export an estimate to an Excel or PDF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			path, err := runExportEstimate(app, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.estimateID, "id", "", "Estimate ID (required)")
	cmd.Flags().StringVar(&opts.format, "format", "xlsx", "Output format: xlsx or pdf")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output file or directory (default: current directory)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// runExportEstimate writes the export and returns the path written.
func runExportEstimate(app core.App, opts exportOptions) (string, error) {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "xlsx" && format != "pdf" {
		return "", fmt.Errorf("invalid --format %q: must be xlsx or pdf", opts.format)
	}

	ctx, err := services.LoadEstimate(app, opts.estimateID)
	if err != nil {
		return "", fmt.Errorf("load estimate %s: %w", opts.estimateID, err)
	}

	data := services.ExportEstimate(ctx)
	var content []byte
	if format == "pdf" {
		content, err = services.GeneratePDF(data)
	} else {
		content, err = services.GenerateExcel(data)
	}
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", format, err)
	}

	path := services.ExportFilename(ctx, format)
	if opts.out != "" {
		if info, statErr := os.Stat(opts.out); statErr == nil && info.IsDir() {
			path = filepath.Join(opts.out, path)
		} else {
			path = opts.out
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func newImportCatalogCmd(app *pocketbase.PocketBase) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import-catalog",
		Short: "Import divisions and cost codes from a .csv or .xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			return runImportCatalog(app, file, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Catalog file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// runImportCatalog imports the file, or prints every row error and imports
// nothing.
func runImportCatalog(app core.App, file string, out io.Writer) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := services.ParseCatalogFile(f, filepath.Base(file))
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(out, "row %d: %s: %s\n", e.Row, e.Field, e.Message)
		}
		return fmt.Errorf("%d of %d rows have errors, nothing imported", result.ErrorRows, result.TotalRows)
	}

	summary, err := services.ImportCatalog(app, result.Rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Divisions: %d created, %d updated\n", summary.DivisionsCreated, summary.DivisionsUpdated)
	fmt.Fprintf(out, "Cost codes: %d created, %d updated\n", summary.CostCodesCreated, summary.CostCodesUpdated)
	return nil
}
