package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/mindscope/internal/ai"
	cfgpkg "github.com/KaramelBytes/mindscope/internal/config"
	"github.com/KaramelBytes/mindscope/internal/dataset"
	"github.com/KaramelBytes/mindscope/internal/persona"
	"github.com/KaramelBytes/mindscope/internal/utils"
)

const fallbackModel = "openai/gpt-4o-mini"

type runtimeOptions struct {
	Provider string
	Model    string
}

func (o *runtimeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Provider, "provider", "", "LLM provider: openrouter|openai|gemini|ollama (default from config)")
	cmd.Flags().StringVar(&o.Model, "model", "", "model name (default from config)")
}

// normalizeProvider maps aliases onto registered provider names.
func normalizeProvider(cfg *cfgpkg.Global, flag string) string {
	name := strings.ToLower(strings.TrimSpace(flag))
	if name == "" && cfg != nil {
		name = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	}
	switch name {
	case "":
		return ai.ProviderOpenRouter
	case "local":
		return ai.ProviderOllama
	case "google":
		return ai.ProviderGemini
	}
	return name
}

func selectModel(cfg *cfgpkg.Global, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return fallbackModel
}

// buildRuntime creates the runtime for the selected provider and returns the
// canonical provider name.
func buildRuntime(ctx context.Context, cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	if cfg == nil {
		cfg = &cfgpkg.Global{}
	}
	provider := normalizeProvider(cfg, opts.Provider)
	rt, err := ai.NewRuntime(ctx, provider, cfg.Runtime(provider))
	if err != nil {
		return nil, provider, err
	}
	return rt, provider, nil
}

type loadFlags struct {
	Delimiter  string
	Decimal    string
	SheetName  string
	SheetIndex int
	MaxRows    int
}

func (l *loadFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.Delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	cmd.Flags().StringVar(&l.Decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	cmd.Flags().StringVar(&l.SheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&l.SheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().IntVar(&l.MaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
}

func (l loadFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	switch l.Delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", l.Delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(l.Decimal)) {
	case "", ".", "dot":
	case ",", "comma":
		opt.DecimalSeparator = ','
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", l.Decimal)
	}
	if l.MaxRows < 0 {
		return opt, fmt.Errorf("--max-rows must be >= 0")
	}
	opt.MaxRows = l.MaxRows
	opt.SheetName = l.SheetName
	opt.SheetIndex = l.SheetIndex
	return opt, nil
}

// resolvePersona accepts a built-in name, a persona file, or the name of a
// persona stored in the personas directory.
func resolvePersona(cfg *cfgpkg.Global, ref string) (*persona.Persona, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("--persona is required (try: %s)", strings.Join(persona.BuiltinNames(), ", "))
	}
	if p, ok := persona.Builtin(ref); ok {
		return p, nil
	}
	if _, err := os.Stat(ref); err == nil {
		return persona.Load(ref)
	}
	if cfg != nil && cfg.PersonasDir != "" {
		ps, err := persona.LoadDir(cfg.PersonasDir)
		if err == nil {
			for _, p := range ps {
				if strings.EqualFold(p.Name, ref) {
					return p, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("persona %q not found (built-in: %s)", ref, strings.Join(persona.BuiltinNames(), ", "))
}

// markdowner is satisfied by values with a Markdown rendering.
type markdowner interface {
	Markdown() string
}

func isMarkdown(format string) bool {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return true
	}
	return false
}

// render encodes v as json, yaml or markdown.
func render(v any, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return nil, fmt.Errorf("marshal output: %w", err)
		}
		return append(b, '\n'), nil
	case "yaml", "yml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal output: %w", err)
		}
		return b, nil
	case "markdown", "md":
		m, ok := v.(markdowner)
		if !ok {
			return nil, fmt.Errorf("markdown output is not available here")
		}
		return []byte(m.Markdown()), nil
	default:
		return nil, fmt.Errorf("unsupported --format: %s (use json|yaml|markdown)", format)
	}
}

// writeOutput prints content to w, or saves it to path when one is given.
func writeOutput(w io.Writer, content []byte, path string) error {
	if path == "" {
		_, err := w.Write(content)
		return err
	}
	if err := utils.SafeWriteFile(path, content); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", filepath.Clean(path))
	return nil
}
