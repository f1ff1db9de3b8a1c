package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(ctx context.Context, cfg RuntimeConfig) (Runtime, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// APIKey authenticates hosted providers.
	APIKey string
	// BaseURL overrides a hosted provider endpoint.
	BaseURL string
	// Host is the Ollama address.
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[strings.ToLower(name)] = f }

// NewRuntime creates the Runtime registered under provider.
func NewRuntime(ctx context.Context, provider string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", provider, strings.Join(Providers(), ", "))
	}
	return f(ctx, cfg)
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterRuntime(ProviderOpenRouter, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay, c.BaseURL), nil
	})
	RegisterRuntime(ProviderOpenAI, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		base := c.BaseURL
		if base == "" {
			base = OpenAIBaseURL
		}
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay, base), nil
	})
	RegisterRuntime(ProviderOllama, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		return NewOllamaClient(c.Host, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay), nil
	})
	RegisterRuntime(ProviderGemini, func(ctx context.Context, c RuntimeConfig) (Runtime, error) {
		return NewGeminiClient(ctx, c.APIKey, c.BaseURL, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	})
}
