// Package manager ties one dataset to its summarizer, the active persona and
// the metric generator.
package manager

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/dataset"
	"github.com/KaramelBytes/mindscope/internal/metrics"
	"github.com/KaramelBytes/mindscope/internal/persona"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

var ErrNoPersona = errors.New("no persona set")

// Manager handles a single dataset at a time.
type Manager struct {
	data     *dataset.Dataset
	filename string
	opts     []summarizer.Option

	runtime ai.Runtime
	gen     ai.GenerationConfig

	mu      sync.Mutex
	summ    *summarizer.Summarizer
	persona *persona.Persona
}

type Option func(*Manager)

// WithSummarizerOptions passes options through to the lazily built
// summarizer.
func WithSummarizerOptions(opts ...summarizer.Option) Option {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

// WithRuntime sets the runtime used for enrichment and metrics. A zero gen
// keeps each component's defaults.
func WithRuntime(rt ai.Runtime, gen ai.GenerationConfig) Option {
	return func(m *Manager) { m.runtime, m.gen = rt, gen }
}

// New wraps an in-memory dataset.
func New(data *dataset.Dataset, filename string, opts ...Option) *Manager {
	m := &Manager{data: data, filename: filename}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open loads path with dataset.LoadFile and wraps the result.
func Open(path string, load dataset.Options, opts ...Option) (*Manager, error) {
	data, err := dataset.LoadFile(path, load)
	if err != nil {
		return nil, err
	}
	return New(data, filepath.Base(path), opts...), nil
}

func (m *Manager) Data() *dataset.Dataset { return m.data }

// Summarize profiles the dataset. An empty dataset is a DataAccessError.
func (m *Manager) Summarize(ctx context.Context, opt summarizer.Options) (*summarizer.Summary, error) {
	s, err := m.ensureSummarizer()
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, opt)
}

// Summary returns the last successful summary, or nil.
func (m *Manager) Summary() *summarizer.Summary {
	m.mu.Lock()
	s := m.summ
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Cached()
}

func (m *Manager) ensureSummarizer() (*summarizer.Summarizer, error) {
	if m.data.IsEmpty() {
		return nil, &dataset.DataAccessError{Source: m.filename, Err: dataset.ErrNoData}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.summ != nil {
		return m.summ, nil
	}
	opts := []summarizer.Option{summarizer.WithFilename(m.filename)}
	if m.runtime != nil {
		opts = append(opts, summarizer.WithRuntime(m.runtime, m.gen))
	}
	s, err := summarizer.New(m.data, append(opts, m.opts...)...)
	if err != nil {
		return nil, err
	}
	m.summ = s
	return s, nil
}

// SetPersona makes p the active persona. It must have a name.
func (m *Manager) SetPersona(p *persona.Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.persona = p
	m.mu.Unlock()
	return nil
}

func (m *Manager) Persona() *persona.Persona {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persona
}

// GenerateMetrics asks for count metrics for the active persona over the
// last summary, summarizing first when nothing has been summarized yet.
func (m *Manager) GenerateMetrics(ctx context.Context, count int) ([]metrics.Metric, error) {
	p := m.Persona()
	if p == nil {
		return nil, ErrNoPersona
	}
	sum := m.Summary()
	if sum == nil {
		var err error
		if sum, err = m.Summarize(ctx, summarizer.DefaultOptions()); err != nil {
			return nil, err
		}
	}
	return metrics.NewGenerator(m.runtime, m.metricsConfig(), count).Generate(ctx, sum, p)
}

func (m *Manager) metricsConfig() ai.GenerationConfig {
	if m.gen == (ai.GenerationConfig{}) {
		return ai.GenerationConfig{}
	}
	cfg := metrics.DefaultGenerationConfig()
	cfg.Model = m.gen.Model
	if m.gen.MaxTokens > 0 {
		cfg.MaxTokens = m.gen.MaxTokens
	}
	return cfg
}
