package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Run one query through the workflow",
	Example: `  ckd ask "김치찌개 만들 때 저칼륨 재료로 대체할 수 있는 게 뭐야?"
  ckd ask --json "투석 환자 저염식 요약해줘"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full workflow state as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	wf, err := a.Workflow(ctx)
	if err != nil {
		return err
	}
	state, err := wf.Run(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printState(cmd.OutOrStdout(), state, askJSON)
}

func printState(w io.Writer, state model.WorkflowState, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(state)
	}
	fmt.Fprintf(w, "[intent: %s]\n\n%s\n", state.Intent, state.Final())
	if state.Usage != nil {
		fmt.Fprintf(w, "\n(llm calls: %d, tokens: %d, cost: $%.5f)\n",
			state.Usage.LLMCalls, state.Usage.TotalTokens, state.Usage.TotalCostUSD)
	}
	return nil
}
