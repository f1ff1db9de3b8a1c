package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mindscope/internal/api"
	"github.com/KaramelBytes/mindscope/internal/logger"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

var (
	serveAddr    string
	serveOrigins []string
	serveRuntime runtimeOptions
	serveNoLLM   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve summaries, personas and metrics over HTTP",
	Example: `  mindscope serve --addr :8080
  mindscope serve --provider ollama --model llama3.1:8b`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = c.ServeAddr
		}
		opts := api.Options{
			Summarizer:     c.Summarizer(),
			SampleCount:    c.SampleCount,
			PersonasDir:    c.PersonasDir,
			AllowedOrigins: serveOrigins,
		}
		if !serveNoLLM {
			rt, provider, err := buildRuntime(cmd.Context(), c, serveRuntime)
			if err != nil {
				return err
			}
			gen := summarizer.EnrichGenerationConfig()
			gen.Model = selectModel(c, serveRuntime.Model)
			opts.Runtime = rt
			opts.Generation = gen
			logger.InfoWithFields("runtime ready", logger.Fields{"provider": provider, "model": gen.Model})
		}
		return api.Serve(cmd.Context(), addr, api.NewHandler(opts).Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allowed-origin", nil, "CORS origin to allow (repeatable)")
	serveCmd.Flags().BoolVar(&serveNoLLM, "no-llm", false, "serve without a model; enrichment and metrics return 503")
	serveRuntime.bind(serveCmd)
}
