package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mindscope/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog and pricing",
	Example: `  mindscope models show
  mindscope models sync --file ./models.json
  mindscope models providers`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ai.Catalog())
	},
}

var syncPath string

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model catalog/pricing from a JSON file into this run",
	Long: `Merge a JSON object of model name -> {provider, context_tokens, input_per_k, output_per_k}
into the in-memory catalog and print the result. Set model_catalog in the
config to load the file on every run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ai.MergeCatalog(m)
		fmt.Fprintf(cmd.OutOrStdout(), "Merged %d models from %s\n", len(m), syncPath)
		return nil
	},
}

var modelsProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range ai.Providers() {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsProvidersCmd)

	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
}
