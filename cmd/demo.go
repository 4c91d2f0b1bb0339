package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var demoQueries = []struct {
	description string
	query       string
}{
	{"recommendation only", "김치찌개 만들 때 저칼륨 재료로 대체할 수 있는 게 뭐야?"},
	{"recommendation with summary", "된장찌개 만드는 법을 저칼륨으로 어떻게 해야 하고 주의할 점은?"},
	{"summary", "혈액투석 환자의 식사 관리 주의사항 요약해줘"},
	{"quiz", "저염식에 대한 퀴즈 3개 만들어줘"},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the sample queries covering every workflow path",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, _ []string) error {
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

	out := cmd.OutOrStdout()
	for i, test := range demoQueries {
		fmt.Fprintf(out, "\nTest %d: %s\nQuery: %q\n\n", i+1, test.description, test.query)
		state, err := wf.Run(ctx, test.query)
		if err != nil {
			return fmt.Errorf("demo query %d: %w", i+1, err)
		}
		if err := printState(out, state, false); err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Repeat("-", 70))
	}
	return nil
}
