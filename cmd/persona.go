package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mindscope/internal/persona"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Inspect and create personas",
}

var personaFormat string

var personaShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Show a built-in, stored or file persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _ := currentConfig()
		p, err := resolvePersona(c, args[0])
		if err != nil {
			return err
		}
		out, err := render(p, personaFormat)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var personaListDir string

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in personas and those in the personas directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, name := range persona.BuiltinNames() {
			fmt.Fprintf(w, "- %s (built-in)\n", name)
		}
		dir := personaListDir
		if dir == "" {
			if c, err := currentConfig(); err == nil {
				dir = c.PersonasDir
			}
		}
		if dir == "" {
			return nil
		}
		ps, err := persona.LoadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, p := range ps {
			fmt.Fprintf(w, "- %s (%s)\n", p.Name, dir)
		}
		return nil
	},
}

var (
	personaInitOutput string
	personaInitDesc   string
	personaInitGoals  []string
	personaInitPains  []string
)

var personaInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Write a new persona file with default preferences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := persona.New(args[0])
		if err := p.Validate(); err != nil {
			return err
		}
		p.Description = personaInitDesc
		p.Goals = personaInitGoals
		p.PainPoints = personaInitPains

		path := personaInitOutput
		if path == "" {
			c, err := currentConfig()
			if err != nil {
				return err
			}
			path = filepath.Join(c.PersonasDir, slug(args[0])+".yaml")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("persona file already exists at %s", path)
		}
		if err := p.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Persona written: %s\n", path)
		return nil
	},
}

// slug turns a persona name into a file name.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func init() {
	rootCmd.AddCommand(personaCmd)
	personaCmd.AddCommand(personaShowCmd)
	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaInitCmd)

	personaShowCmd.Flags().StringVar(&personaFormat, "format", "yaml", "output format: json|yaml")
	personaListCmd.Flags().StringVar(&personaListDir, "dir", "", "personas directory (default from config)")
	personaInitCmd.Flags().StringVarP(&personaInitOutput, "output", "o", "", "file to write (.json, .yaml or .yml); defaults to the personas directory")
	personaInitCmd.Flags().StringVarP(&personaInitDesc, "description", "d", "", "persona description")
	personaInitCmd.Flags().StringSliceVar(&personaInitGoals, "goal", nil, "persona goal (repeatable)")
	personaInitCmd.Flags().StringSliceVar(&personaInitPains, "pain-point", nil, "persona pain point (repeatable)")
}
