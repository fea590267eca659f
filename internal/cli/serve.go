package cli

import (
	"github.com/spf13/cobra"

	"coursetutor/internal/port"
	"coursetutor/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and ask over HTTP",
	Long: `Load the embedding store once and serve it as a JSON API.

Endpoints:
  GET  /healthz     store metadata
  POST /v1/search   {"question": "...", "top_k": 5}
  POST /v1/ask      {"question": "...", "provider": "ollama", "model": "llama3.2"}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	askUC, err := openAskUseCase(cfg, GetRootDir())
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(askUC, func(provider, model string) (port.LLM, error) {
		return newLLM(cfg, provider, model)
	})
	return srv.ListenAndServe(cmd.Context(), addr)
}
