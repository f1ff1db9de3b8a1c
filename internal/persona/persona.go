package persona

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/mindscope/internal/utils"
)

// Persona describes the business user metrics are written for.
type Persona struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Goals       []string          `json:"goals,omitempty" yaml:"goals,omitempty"`
	PainPoints  []string          `json:"pain_points,omitempty" yaml:"pain_points,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	Trait       map[string]any    `json:"trait,omitempty" yaml:"trait,omitempty"`
}

// DefaultPreferences returns the preferences a persona gets when its file
// does not set any.
func DefaultPreferences() map[string]string {
	return map[string]string{"tone": "trustworthy", "detail_level": "medium"}
}

// New returns a persona with the given name and default preferences.
func New(name string) *Persona {
	return &Persona{Name: name, Preferences: DefaultPreferences()}
}

func (p *Persona) String() string { return fmt.Sprintf("Persona(%s)", p.Name) }

// Validate checks the required fields.
func (p *Persona) Validate() error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return &MissingFieldError{Field: "name"}
	}
	return nil
}

// UnsupportedFormatError is returned for persona files that are neither
// JSON nor YAML.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported persona format %q for %s (want .json, .yaml or .yml)", e.Ext, e.Path)
}

// MissingFieldError reports a required persona field that is absent.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persona is missing required field %q", e.Field)
	}
	return fmt.Sprintf("persona %s is missing required field %q", e.Path, e.Field)
}

// Load reads a persona from a .json, .yaml or .yml file.
func Load(path string) (*Persona, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, &UnsupportedFormatError{Path: path, Ext: ext}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona: %w", err)
	}
	return Parse(b, ext, path)
}

// Parse decodes persona bytes in the format named by ext.
func Parse(b []byte, ext, source string) (*Persona, error) {
	var p Persona
	switch strings.ToLower(ext) {
	case ".json", "json":
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("parse persona %s: %w", source, err)
		}
	case ".yaml", ".yml", "yaml", "yml":
		if err := yaml.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("parse persona %s: %w", source, err)
		}
	default:
		return nil, &UnsupportedFormatError{Path: source, Ext: ext}
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, &MissingFieldError{Path: source, Field: "name"}
	}
	if len(p.Preferences) == 0 {
		p.Preferences = DefaultPreferences()
	}
	return &p, nil
}

// Save writes p as YAML, or JSON when path ends in .json.
func (p *Persona) Save(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err = utils.PrettyJSON(p)
	case ".yaml", ".yml":
		b, err = yaml.Marshal(p)
	default:
		return &UnsupportedFormatError{Path: path, Ext: filepath.Ext(path)}
	}
	if err != nil {
		return fmt.Errorf("encode persona: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// LoadDir loads every persona file in dir, sorted by name. Files with other
// extensions are skipped; a malformed persona file fails the whole load.
func LoadDir(dir string) ([]*Persona, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read persona dir: %w", err)
	}
	var out []*Persona
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			var ufe *UnsupportedFormatError
			if errors.As(err, &ufe) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Resolve returns the built-in persona called ref, or loads ref as a file.
func Resolve(ref string) (*Persona, error) {
	if p, ok := Builtin(ref); ok {
		return p, nil
	}
	return Load(ref)
}
