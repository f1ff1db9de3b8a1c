package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mindscope/internal/dataset"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

type summarizeFlags struct {
	Samples     int
	Enrich      bool
	Name        string
	Description string
	Output      string
	Format      string
	Load        loadFlags
	Runtime     runtimeOptions
}

var sumFlags summarizeFlags

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Profile a CSV/TSV/JSON/XLSX dataset column by column",
	Example: `  mindscope summarize sales.csv
  mindscope summarize sales.xlsx --sheet-name Q1 --format markdown
  mindscope summarize sales.csv --enrich --desc "Orders export" --output sales.summary.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		load, err := sumFlags.Load.options()
		if err != nil {
			return err
		}
		data, err := dataset.LoadFile(args[0], load)
		if err != nil {
			return err
		}
		return summarizeAndWrite(cmd, data, filepath.Base(args[0]))
	},
}

type sqlFlags struct {
	Driver string
	DSN    string
	Table  string
	Query  string
}

var sumSQL sqlFlags

var summarizeSQLCmd = &cobra.Command{
	Use:   "summarize-sql",
	Short: "Profile a SQL table or query result",
	Example: `  mindscope summarize-sql --driver sqlite3 --dsn ./shop.db --table orders
  mindscope summarize-sql --driver postgres --dsn postgres://localhost/shop --query "select * from orders where year = 2024"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sumSQL.DSN == "" {
			return fmt.Errorf("--dsn is required")
		}
		if (sumSQL.Table == "") == (sumSQL.Query == "") {
			return fmt.Errorf("specify exactly one of --table or --query")
		}
		load, err := sumFlags.Load.options()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		var data *dataset.Dataset
		source := sumSQL.Table
		if sumSQL.Table != "" {
			data, err = dataset.LoadSQL(ctx, sumSQL.Driver, sumSQL.DSN, sumSQL.Table, load)
		} else {
			source = "query"
			db, _, oerr := dataset.OpenDB(sumSQL.Driver, sumSQL.DSN)
			if oerr != nil {
				return &dataset.DataAccessError{Source: source, Err: oerr}
			}
			defer db.Close()
			data, err = dataset.QuerySQL(ctx, db, sumSQL.Query)
		}
		if err != nil {
			return err
		}
		return summarizeAndWrite(cmd, data, source)
	},
}

func summarizeAndWrite(cmd *cobra.Command, data *dataset.Dataset, filename string) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}
	opts := []summarizer.Option{
		summarizer.WithConfig(c.Summarizer()),
		summarizer.WithFilename(filename),
		summarizer.WithName(sumFlags.Name),
		summarizer.WithDescription(sumFlags.Description),
	}
	if sumFlags.Enrich {
		rt, _, err := buildRuntime(cmd.Context(), c, sumFlags.Runtime)
		if err != nil {
			return err
		}
		gen := summarizer.EnrichGenerationConfig()
		gen.Model = selectModel(c, sumFlags.Runtime.Model)
		opts = append(opts, summarizer.WithRuntime(rt, gen))
	}
	s, err := summarizer.New(data, opts...)
	if err != nil {
		return err
	}
	samples := sumFlags.Samples
	if !cmd.Flags().Changed("samples") && c.SampleCount > 0 {
		samples = c.SampleCount
	}
	sum, err := s.Summarize(cmd.Context(), summarizer.Options{Samples: samples, Enrich: sumFlags.Enrich})
	if err != nil {
		return err
	}
	out, err := render(sum, sumFlags.Format)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), out, sumFlags.Output)
}

func bindSummaryFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&sumFlags.Samples, "samples", summarizer.DefaultOptions().Samples, "sample values per column (default from config)")
	cmd.Flags().BoolVar(&sumFlags.Enrich, "enrich", false, "ask the model for a dataset description and per-column summaries")
	cmd.Flags().StringVar(&sumFlags.Name, "name", "", "dataset name (defaults to the file name)")
	cmd.Flags().StringVar(&sumFlags.Description, "desc", "", "dataset description")
	cmd.Flags().StringVarP(&sumFlags.Output, "output", "o", "", "write the summary to this path instead of stdout")
	cmd.Flags().StringVar(&sumFlags.Format, "format", "json", "output format: json|yaml|markdown")
	sumFlags.Load.bind(cmd)
	sumFlags.Runtime.bind(cmd)
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(summarizeSQLCmd)
	bindSummaryFlags(summarizeCmd)
	bindSummaryFlags(summarizeSQLCmd)

	summarizeSQLCmd.Flags().StringVar(&sumSQL.Driver, "driver", "sqlite3", "database driver: sqlite3|postgres|mysql")
	summarizeSQLCmd.Flags().StringVar(&sumSQL.DSN, "dsn", "", "connection string (a file path for sqlite3)")
	summarizeSQLCmd.Flags().StringVar(&sumSQL.Table, "table", "", "table to profile")
	summarizeSQLCmd.Flags().StringVar(&sumSQL.Query, "query", "", "query whose result set is profiled")
}
