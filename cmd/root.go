package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renal-diet-poc/server/internal/app"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

var (
	envFile string
	cfg     app.Config
)

var rootCmd = &cobra.Command{
	Use:   "ckd",
	Short: "Diet assistant for chronic kidney disease patients",
	Long: "ckd answers dietary questions for chronic kidney disease patients.\n" +
		"It recommends low-potassium/low-phosphorus substitutes, summarizes cooking\n" +
		"guidance and writes quizzes from an indexed nutrition corpus with web search fallback.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = app.LoadConfig(envFile)
		if err != nil {
			return err
		}
		logx.Init(logx.LoggerOpts{Environment: cfg.Environment(), Level: cfg.LogLevel})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp builds the application and makes sure the vector index exists.
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := a.EnsureIndex(ctx, false); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
