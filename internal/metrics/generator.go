package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/logger"
	"github.com/KaramelBytes/mindscope/internal/persona"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
	"github.com/KaramelBytes/mindscope/internal/utils"
)

// DefaultCount is the number of metrics requested when none is given.
const DefaultCount = 5

var (
	ErrNoRuntime   = errors.New("no text-generation runtime configured")
	ErrNoSummary   = errors.New("a dataset summary is required")
	ErrInstruction = errors.New("instruction is empty")
)

// DefaultGenerationConfig returns the sampling parameters for metric calls.
func DefaultGenerationConfig() ai.GenerationConfig {
	cfg := ai.DefaultGenerationConfig()
	cfg.Temperature = 0.4
	cfg.MaxTokens = 4028
	return cfg
}

// Generator asks a runtime for persona-specific metrics over a summary.
type Generator struct {
	runtime ai.Runtime
	gen     ai.GenerationConfig
	count   int
}

// NewGenerator returns a Generator. A zero gen uses DefaultGenerationConfig
// and a count below one uses DefaultCount.
func NewGenerator(rt ai.Runtime, gen ai.GenerationConfig, count int) *Generator {
	if gen == (ai.GenerationConfig{}) {
		gen = DefaultGenerationConfig()
	}
	if count < 1 {
		count = DefaultCount
	}
	return &Generator{runtime: rt, gen: gen, count: count}
}

func (g *Generator) Count() int { return g.count }

// Generate requests Count metrics in one call and parses the reply. Reply
// problems are returned as *MetricParsingError.
func (g *Generator) Generate(ctx context.Context, sum *summarizer.Summary, p *persona.Persona) ([]Metric, error) {
	msgs, err := g.messages(sum, p)
	if err != nil {
		return nil, err
	}
	if g.runtime == nil {
		return nil, ErrNoRuntime
	}
	g.checkContext(msgs)

	resp, err := g.runtime.Generate(ctx, g.gen.Request(msgs...))
	if err != nil {
		return nil, fmt.Errorf("generate metrics: %w", err)
	}
	ai.LogUsage("metrics", g.gen.Model, resp)

	list, err := ParseMetrics(resp.Text())
	if err != nil {
		return nil, err
	}
	if len(list) != g.count {
		logger.WarnWithFields("metric count differs from request", logger.Fields{
			"requested": g.count,
			"received":  len(list),
		})
	}
	return list, nil
}

// Refine rewrites one metric according to a free-form instruction. The
// summary is optional context.
func (g *Generator) Refine(ctx context.Context, m Metric, instruction string, sum *summarizer.Summary) (Metric, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return Metric{}, ErrInstruction
	}
	if g.runtime == nil {
		return Metric{}, ErrNoRuntime
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return Metric{}, fmt.Errorf("encode metric: %w", err)
	}
	user := fmt.Sprintf(refineUserTemplate, mb, instruction)
	if sum != nil {
		sb, err := json.Marshal(sum)
		if err != nil {
			return Metric{}, fmt.Errorf("encode summary: %w", err)
		}
		user = fmt.Sprintf("Dataset:\n%s\n\n%s", sb, user)
	}

	resp, err := g.runtime.Generate(ctx, g.gen.Request(ai.System(refineSystemPrompt), ai.User(user)))
	if err != nil {
		return Metric{}, fmt.Errorf("refine metric: %w", err)
	}
	ai.LogUsage("metric refine", g.gen.Model, resp)
	return parseMetric(resp.Text())
}

// PromptTokens estimates the size of each part of a Generate prompt.
func (g *Generator) PromptTokens(sum *summarizer.Summary, p *persona.Persona) (map[string]int, error) {
	msgs, err := g.messages(sum, p)
	if err != nil {
		return nil, err
	}
	return utils.TokenBreakdown(map[string]string{
		"system": msgs[0].Content,
		"user":   msgs[1].Content,
	}), nil
}

func (g *Generator) messages(sum *summarizer.Summary, p *persona.Persona) ([]ai.Message, error) {
	if sum == nil {
		return nil, ErrNoSummary
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sb, err := json.Marshal(sum)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	pb, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode persona: %w", err)
	}
	return []ai.Message{
		ai.System(generateSystemPrompt(g.count)),
		ai.User(fmt.Sprintf(generateUserTemplate, sb, pb)),
	}, nil
}

// checkContext warns when the estimated prompt and the completion budget
// exceed the model's context window.
func (g *Generator) checkContext(msgs []ai.Message) {
	mi, ok := ai.LookupModel(g.gen.Model)
	if !ok || mi.ContextTokens == 0 {
		return
	}
	est := 0
	for _, m := range msgs {
		est += utils.CountTokens(m.Content)
	}
	if est+g.gen.MaxTokens > mi.ContextTokens {
		logger.WarnWithFields("prompt may exceed model context", logger.Fields{
			"model":          g.gen.Model,
			"prompt_tokens":  est,
			"max_tokens":     g.gen.MaxTokens,
			"context_tokens": mi.ContextTokens,
		})
	}
}
