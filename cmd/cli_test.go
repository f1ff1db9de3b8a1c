package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/mindscope/internal/dataset"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(c *cobra.Command) {
	visit := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(visit)
	c.PersistentFlags().VisitAll(visit)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points HOME at a temp dir and clears provider keys.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "MINDSCOPE_API_KEY", "MINDSCOPE_DEFAULT_MODEL", "MINDSCOPE_PERSONAS_DIR"} {
		t.Setenv(k, "")
	}
	cfg = nil
	t.Cleanup(func() { cfg = nil })
	return home
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func writeSales(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sales.csv")
	data := "order_id,amount,region,placed\n1,120.5,west,2024-01-03\n2,80,east,2024-01-04\n3,,west,2024-02-10\n4,42.25,north,2024-02-11\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCLI_SummarizeJSON(t *testing.T) {
	home := isolate(t)
	path := writeSales(t, home)

	out := mustRun(t, "summarize", path, "--samples", "2", "--desc", "Q1 orders")
	for _, want := range []string{`"filename": "sales.csv"`, `"description": "Q1 orders"`, `"type": "numeric"`, `"type": "date-like string"`, `"type": "categorical string"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output:\n%s", want, out)
		}
	}
}

func TestCLI_SummarizeMarkdownToFile(t *testing.T) {
	home := isolate(t)
	path := writeSales(t, home)
	outPath := filepath.Join(home, "out", "sales.md")

	out := mustRun(t, "summarize", path, "--format", "markdown", "--output", outPath)
	if !strings.Contains(out, "Wrote") {
		t.Fatalf("expected confirmation, got %q", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(b), "[DATASET SUMMARY]") || !strings.Contains(string(b), "- amount: numeric") {
		t.Fatalf("unexpected markdown:\n%s", b)
	}
}

func TestCLI_SummarizeErrors(t *testing.T) {
	home := isolate(t)
	path := writeSales(t, home)

	if _, err := runCmd(t, "summarize", filepath.Join(home, "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := runCmd(t, "summarize", path, "--delimiter", "x"); err == nil {
		t.Fatal("expected error for bad delimiter")
	}
	if _, err := runCmd(t, "summarize", path, "--format", "toml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := runCmd(t, "summarize-sql", "--dsn", "x.db"); err == nil {
		t.Fatal("expected error when neither --table nor --query is set")
	}
}

func TestCLI_SummarizeSQL(t *testing.T) {
	home := isolate(t)
	dsn := filepath.Join(home, "shop.db")
	db, _, err := dataset.OpenDB("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.MustExec(`CREATE TABLE orders (id INTEGER, total REAL, region TEXT)`)
	db.MustExec(`CREATE TABLE returns (id INTEGER)`)
	db.MustExec(`INSERT INTO orders VALUES (1, 9.5, 'west'), (2, 3.25, 'east')`)
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	out := mustRun(t, "summarize-sql", "--dsn", dsn, "--table", "orders")
	if !strings.Contains(out, `"filename": "orders"`) || !strings.Contains(out, `"type": "numeric"`) {
		t.Fatalf("unexpected summary:\n%s", out)
	}

	for _, args := range [][]string{
		{"summarize-sql", "--dsn", dsn, "--table", "returns"},
		{"summarize-sql", "--dsn", dsn, "--query", "SELECT * FROM orders WHERE 1 = 0"},
		{"summarize-sql", "--dsn", dsn, "--query", "SELECT * FROM missing"},
		{"summarize-sql", "--driver", "oracle", "--dsn", dsn, "--query", "SELECT 1"},
		{"summarize-sql", "--driver", "oracle", "--dsn", dsn, "--table", "orders"},
	} {
		_, err := runCmd(t, args...)
		var dae *dataset.DataAccessError
		if !errors.As(err, &dae) {
			t.Fatalf("%v: expected DataAccessError, got %v", args, err)
		}
	}
	_, err = runCmd(t, "summarize-sql", "--dsn", dsn, "--query", "SELECT * FROM orders WHERE 1 = 0")
	if !errors.Is(err, dataset.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestCLI_PersonaInitListShow(t *testing.T) {
	home := isolate(t)

	out := mustRun(t, "persona", "init", "Head of Ops", "-d", "Runs the warehouses", "--goal", "Ship on time")
	want := filepath.Join(home, ".mindscope", "personas", "head-of-ops.yaml")
	if !strings.Contains(out, want) {
		t.Fatalf("expected %s in %q", want, out)
	}
	if _, err := runCmd(t, "persona", "init", "Head of Ops"); err == nil {
		t.Fatal("expected error when the persona file exists")
	}

	out = mustRun(t, "persona", "list")
	if !strings.Contains(out, "- Chief Financial Officer (built-in)") || !strings.Contains(out, "- Head of Ops (") {
		t.Fatalf("unexpected list:\n%s", out)
	}

	out = mustRun(t, "persona", "show", "head of ops")
	if !strings.Contains(out, "name: Head of Ops") || !strings.Contains(out, "Ship on time") {
		t.Fatalf("unexpected persona:\n%s", out)
	}
	out = mustRun(t, "persona", "show", "vp of sales", "--format", "json")
	if !strings.Contains(out, `"name": "VP of Sales"`) {
		t.Fatalf("unexpected persona:\n%s", out)
	}
	if _, err := runCmd(t, "persona", "show", "nobody"); err == nil {
		t.Fatal("expected error for unknown persona")
	}
}

func TestCLI_MetricsDryRun(t *testing.T) {
	home := isolate(t)
	path := writeSales(t, home)

	out := mustRun(t, "metrics", path, "--persona", "VP of Sales", "--dry-run", "--model", "gpt-4o-mini")
	for _, want := range []string{"Persona: VP of Sales", "Model: gpt-4o-mini", "Prompt tokens: ~", "Estimated cost"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if _, err := runCmd(t, "metrics", path, "--dry-run"); err == nil {
		t.Fatal("expected error without --persona")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolate(t)

	mustRun(t, "config", "set", "sample_count", "7")
	mustRun(t, "config", "set", "default_provider", "local")
	cfg = nil
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "sample_count: 7") || !strings.Contains(out, "default_provider: ollama") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "default_provider", "acme"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestCLI_ModelsProviders(t *testing.T) {
	isolate(t)
	out := mustRun(t, "models", "providers")
	if out != "gemini\nollama\nopenai\nopenrouter\n" {
		t.Fatalf("unexpected providers: %q", out)
	}
}
