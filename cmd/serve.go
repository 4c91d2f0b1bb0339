package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/renal-diet-poc/server/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workflow over HTTP",
	Long: `Starts the HTTP API:
  POST /v1/workflow   {"query": "..."} -> workflow state
  GET  /v1/search     ?q=&k=&source=   -> scored passages
  GET  /health, GET /metrics
The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	read, write, shutdown, err := cfg.ServerTimeouts()
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	wf, err := a.Workflow(ctx)
	if err != nil {
		return err
	}

	srv := server.New(wf, a.Retriever(), a.Store(), server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  read,
		WriteTimeout: write,
	})
	return srv.Run(ctx, shutdown)
}
