package cmd

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

var (
	searchK      int
	searchSource string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the indexed passages closest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchK, "k", 0, "number of passages (default RETRIEVER_K)")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "only keep passages from this source file")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	var docs []*schema.Document
	if searchSource != "" {
		docs, err = a.Retriever().FilterBySource(ctx, query, searchSource, searchK)
	} else {
		docs, err = a.Retriever().RetrieveWithScores(ctx, query, searchK)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(docs) == 0 {
		fmt.Fprintln(out, "no passages found")
		return nil
	}
	for i, d := range docs {
		fmt.Fprintf(out, "[%d] score=%.4f source=%v page=%v\n%s\n\n",
			i+1, d.Score(), d.MetaData[model.MetaSourceFile], d.MetaData[model.MetaPage], d.Content)
	}
	return nil
}
