package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/dataset"
	"github.com/KaramelBytes/mindscope/internal/logger"
)

// Options controls one Summarize pass.
type Options struct {
	// Samples is the number of distinct values attached to each column.
	Samples int
	// Enrich asks the runtime for a description and per-column summaries.
	Enrich bool
}

// DefaultOptions draws three samples and does not enrich.
func DefaultOptions() Options { return Options{Samples: 3} }

// Summarizer profiles a dataset column by column. It never mutates the
// dataset. Summarize may be called concurrently; the cached summary is only
// replaced by a pass that completed without error.
type Summarizer struct {
	data        *dataset.Dataset
	cfg         Config
	filename    string
	name        string
	description *string

	runtime ai.Runtime
	gen     ai.GenerationConfig

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	cached *Summary
}

type Option func(*Summarizer)

func WithConfig(cfg Config) Option {
	return func(s *Summarizer) { s.cfg = cfg.normalized() }
}

func WithFilename(filename string) Option {
	return func(s *Summarizer) { s.filename = filename }
}

// WithName sets the dataset name; it defaults to the filename.
func WithName(name string) Option {
	return func(s *Summarizer) { s.name = name }
}

func WithDescription(desc string) Option {
	return func(s *Summarizer) {
		if strings.TrimSpace(desc) == "" {
			s.description = nil
			return
		}
		d := desc
		s.description = &d
	}
}

// WithRuntime sets the text-generation runtime used for enrichment. A zero
// gen falls back to EnrichGenerationConfig.
func WithRuntime(rt ai.Runtime, gen ai.GenerationConfig) Option {
	return func(s *Summarizer) {
		s.runtime = rt
		if gen != (ai.GenerationConfig{}) {
			s.gen = gen
		}
	}
}

// WithRand replaces the sample source, mainly for reproducible output.
func WithRand(r *rand.Rand) Option {
	return func(s *Summarizer) {
		if r != nil {
			s.rng = r
		}
	}
}

// New returns a Summarizer over data. A nil dataset or one without rows is
// a DataAccessError.
func New(data *dataset.Dataset, opts ...Option) (*Summarizer, error) {
	if data.IsEmpty() {
		return nil, &dataset.DataAccessError{Source: "summarizer", Err: dataset.ErrNoData}
	}
	s := &Summarizer{
		data: data,
		cfg:  DefaultConfig(),
		gen:  EnrichGenerationConfig(),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		s.name = s.filename
	}
	return s, nil
}

func (s *Summarizer) Config() Config { return s.cfg }

// Cached returns a copy of the last successful summary, or nil before the
// first one.
func (s *Summarizer) Cached() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached.Clone()
}

// Summarize profiles every column in order and, when requested, enriches
// the result. The returned Summary belongs to the caller.
func (s *Summarizer) Summarize(ctx context.Context, opt Options) (*Summary, error) {
	sum := &Summary{
		Filename: s.filename,
		Name:     s.name,
		Columns:  make([]ColumnProfile, 0, s.data.Width()),
	}
	if s.description != nil {
		d := *s.description
		sum.Description = &d
	}

	for _, col := range s.data.Columns() {
		p := profileColumn(col, s.cfg)
		p.Samples = s.samples(col, opt.Samples)
		logger.DebugWithFields("column profiled", logger.Fields{
			"column": p.Column,
			"dtype":  p.DType,
			"type":   p.Type,
			"nulls":  p.NullCount,
		})
		sum.Columns = append(sum.Columns, p)
	}

	if opt.Enrich {
		if err := s.enrich(ctx, sum); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.cached = sum.Clone()
	s.mu.Unlock()

	logger.InfoWithFields("dataset summarized", logger.Fields{
		"name":     sum.Name,
		"rows":     s.data.Rows(),
		"columns":  len(sum.Columns),
		"enriched": opt.Enrich,
	})
	return sum, nil
}

func (s *Summarizer) samples(col dataset.Column, n int) []any {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return drawSamples(col.NonNull(), n, s.rng)
}

// enrichment is the subset of the reply that is merged back.
type enrichment struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Columns     []struct {
		Column  string `json:"column"`
		Summary string `json:"summary"`
	} `json:"columns"`
}

func (s *Summarizer) enrich(ctx context.Context, sum *Summary) error {
	if s.runtime == nil {
		return &SummaryEnrichmentError{Err: ErrNoRuntime}
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return &SummaryEnrichmentError{Err: fmt.Errorf("encode summary: %w", err)}
	}
	resp, err := s.runtime.Generate(ctx, s.gen.Request(enrichMessages(payload)...))
	if err != nil {
		return &SummaryEnrichmentError{Err: err}
	}
	if resp == nil {
		return &SummaryEnrichmentError{Err: ErrEmptyResponse}
	}
	ai.LogUsage("summary enrichment", s.gen.Model, resp)

	parsed, err := parseEnrichment(resp.Text())
	if err != nil {
		return &SummaryEnrichmentError{Err: err}
	}
	applyEnrichment(sum, parsed)
	return nil
}

func parseEnrichment(text string) (*enrichment, error) {
	body := StripCodeFence(text)
	if body == "" || body == "null" {
		return nil, ErrEmptyResponse
	}
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("expected a JSON object, got %q", truncate(body, 40))
	}
	var out enrichment
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode enrichment: %w", err)
	}
	return &out, nil
}

// applyEnrichment merges a reply into sum. A description or name already
// set is kept; column summaries are matched by column name.
func applyEnrichment(sum *Summary, e *enrichment) {
	if sum.Description == nil && e.Description != nil && strings.TrimSpace(*e.Description) != "" {
		d := strings.TrimSpace(*e.Description)
		sum.Description = &d
	}
	if sum.Name == "" {
		sum.Name = strings.TrimSpace(e.Name)
	}
	byName := make(map[string]string, len(e.Columns))
	for _, c := range e.Columns {
		byName[c.Column] = strings.TrimSpace(c.Summary)
	}
	for i := range sum.Columns {
		if text, ok := byName[sum.Columns[i].Column]; ok {
			sum.Columns[i].Summary = text
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
