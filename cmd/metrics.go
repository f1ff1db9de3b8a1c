package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/manager"
	"github.com/KaramelBytes/mindscope/internal/metrics"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

type metricsFlags struct {
	Persona     string
	Count       int
	DryRun      bool
	Samples     int
	Enrich      bool
	Name        string
	Description string
	Output      string
	Format      string
	Load        loadFlags
	Runtime     runtimeOptions
}

var metFlags metricsFlags

var metricsCmd = &cobra.Command{
	Use:   "metrics <file>",
	Short: "Propose business metrics for a dataset and a persona",
	Example: `  mindscope metrics sales.csv --persona "VP of Sales"
  mindscope metrics sales.csv --persona ./personas/cfo.yaml --count 3 --format markdown
  mindscope metrics sales.csv --persona "Chief Financial Officer" --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		p, err := resolvePersona(c, metFlags.Persona)
		if err != nil {
			return err
		}
		load, err := metFlags.Load.options()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		model := selectModel(c, metFlags.Runtime.Model)

		opts := []manager.Option{manager.WithSummarizerOptions(
			summarizer.WithConfig(c.Summarizer()),
			summarizer.WithName(metFlags.Name),
			summarizer.WithDescription(metFlags.Description),
		)}
		needsRuntime := !metFlags.DryRun || metFlags.Enrich
		if needsRuntime {
			rt, _, err := buildRuntime(ctx, c, metFlags.Runtime)
			if err != nil {
				return err
			}
			gen := summarizer.EnrichGenerationConfig()
			gen.Model = model
			opts = append(opts, manager.WithRuntime(rt, gen))
		}
		m, err := manager.Open(args[0], load, opts...)
		if err != nil {
			return err
		}
		if err := m.SetPersona(p); err != nil {
			return err
		}
		samples := metFlags.Samples
		if !cmd.Flags().Changed("samples") && c.SampleCount > 0 {
			samples = c.SampleCount
		}
		sum, err := m.Summarize(ctx, summarizer.Options{Samples: samples, Enrich: metFlags.Enrich})
		if err != nil {
			return err
		}

		if metFlags.DryRun {
			gen := metrics.DefaultGenerationConfig()
			gen.Model = model
			tokens, err := metrics.NewGenerator(nil, gen, metFlags.Count).PromptTokens(sum, p)
			if err != nil {
				return err
			}
			total := tokens["system"] + tokens["user"]
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Persona: %s\n", p.Name)
			fmt.Fprintf(w, "Model: %s\n", model)
			fmt.Fprintf(w, "Prompt tokens: ~%d (system %d, user %d)\n", total, tokens["system"], tokens["user"])
			if cost, ok := ai.EstimateCostUSD(model, ai.Usage{PromptTokens: total, CompletionTokens: gen.MaxTokens}); ok {
				fmt.Fprintf(w, "Estimated cost (max completion): ~$%.4f\n", cost)
			}
			return nil
		}

		list, err := m.GenerateMetrics(ctx, metFlags.Count)
		if err != nil {
			return err
		}
		out, err := render(metrics.List(list), metFlags.Format)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), out, metFlags.Output)
	},
}

var refineFlags struct {
	Metric      string
	Summary     string
	Instruction string
	Output      string
	Format      string
	Runtime     runtimeOptions
}

var metricsRefineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Revise one metric following an instruction",
	Example: `  mindscope metrics refine --metric aov.json --instruction "express it per customer"
  mindscope metrics refine --metric aov.json --summary sales.summary.json --instruction "use net revenue"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if refineFlags.Metric == "" {
			return fmt.Errorf("--metric is required")
		}
		var metric metrics.Metric
		if err := readJSON(refineFlags.Metric, &metric); err != nil {
			return err
		}
		var sum *summarizer.Summary
		if refineFlags.Summary != "" {
			sum = &summarizer.Summary{}
			if err := readJSON(refineFlags.Summary, sum); err != nil {
				return err
			}
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		rt, _, err := buildRuntime(cmd.Context(), c, refineFlags.Runtime)
		if err != nil {
			return err
		}
		gen := metrics.DefaultGenerationConfig()
		gen.Model = selectModel(c, refineFlags.Runtime.Model)
		refined, err := metrics.NewGenerator(rt, gen, 1).Refine(cmd.Context(), metric, refineFlags.Instruction, sum)
		if err != nil {
			return err
		}
		var v any = refined
		if isMarkdown(refineFlags.Format) {
			v = metrics.List{refined}
		}
		out, err := render(v, refineFlags.Format)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), out, refineFlags.Output)
	},
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.AddCommand(metricsRefineCmd)

	f := metricsCmd.Flags()
	f.StringVarP(&metFlags.Persona, "persona", "p", "", "built-in persona name, persona file, or name of a stored persona")
	f.IntVarP(&metFlags.Count, "count", "n", metrics.DefaultCount, "number of metrics to request")
	f.BoolVar(&metFlags.DryRun, "dry-run", false, "estimate prompt size without calling the model")
	f.IntVar(&metFlags.Samples, "samples", summarizer.DefaultOptions().Samples, "sample values per column (default from config)")
	f.BoolVar(&metFlags.Enrich, "enrich", false, "enrich the summary before asking for metrics")
	f.StringVar(&metFlags.Name, "name", "", "dataset name (defaults to the file name)")
	f.StringVar(&metFlags.Description, "desc", "", "dataset description")
	f.StringVarP(&metFlags.Output, "output", "o", "", "write the metrics to this path instead of stdout")
	f.StringVar(&metFlags.Format, "format", "json", "output format: json|yaml|markdown")
	metFlags.Load.bind(metricsCmd)
	metFlags.Runtime.bind(metricsCmd)

	rf := metricsRefineCmd.Flags()
	rf.StringVar(&refineFlags.Metric, "metric", "", "JSON file holding the metric to refine")
	rf.StringVar(&refineFlags.Summary, "summary", "", "optional JSON dataset summary for context")
	rf.StringVarP(&refineFlags.Instruction, "instruction", "i", "", "what to change")
	rf.StringVarP(&refineFlags.Output, "output", "o", "", "write the metric to this path instead of stdout")
	rf.StringVar(&refineFlags.Format, "format", "json", "output format: json|yaml|markdown")
	refineFlags.Runtime.bind(metricsRefineCmd)
}
