package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/renal-diet-poc/server/internal/app"
)

var rebuildIndex bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the PDF guides and CSV datasets",
	Long: `Loads every PDF in PDF_DIR plus the optional FOODS_CSV and RECIPES_CSV,
splits and embeds them and writes the chunks to the configured vector backend.
A populated index is reused unless --rebuild is given.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&rebuildIndex, "rebuild", false, "clear the vector store and rebuild it")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.EnsureIndex(cmd.Context(), rebuildIndex)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if report.Skipped {
		fmt.Fprintf(out, "index already contains %d chunks (use --rebuild to recreate)\n", report.Total)
		return nil
	}
	fmt.Fprintf(out, "indexed %d pages and %d rows into %d chunks in %s\n",
		report.Pages, report.Rows, report.Chunks, report.Duration.Round(time.Millisecond))
	return nil
}
