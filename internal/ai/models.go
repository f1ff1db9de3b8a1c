package ai

import (
	"encoding/json"
	"os"
	"sort"
)

// ModelInfo is catalog metadata used for usage logging and cost estimates.
// Prices are illustrative; verify them against the provider's pricing page.
type ModelInfo struct {
	Name          string  `json:"name"`
	Provider      string  `json:"provider"`
	ContextTokens int     `json:"context_tokens"`
	InputPerK     float64 `json:"input_per_k"`  // USD per 1K input tokens
	OutputPerK    float64 `json:"output_per_k"` // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"gpt-4o-mini":                 {Name: "gpt-4o-mini", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"gpt-4o":                      {Name: "gpt-4o", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
	"openai/gpt-4o-mini":          {Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"openai/gpt-4.1-mini":         {Name: "openai/gpt-4.1-mini", Provider: ProviderOpenRouter, ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016},
	"anthropic/claude-3.5-sonnet": {Name: "anthropic/claude-3.5-sonnet", Provider: ProviderOpenRouter, ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015},
	"deepseek/deepseek-r1:free":   {Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter, ContextTokens: 128000},
	"gemini-2.0-flash":            {Name: "gemini-2.0-flash", Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.0001, OutputPerK: 0.0004},
	"gemini-1.5-pro":              {Name: "gemini-1.5-pro", Provider: ProviderGemini, ContextTokens: 2000000, InputPerK: 0.00125, OutputPerK: 0.005},
	"llama3.1:8b":                 {Name: "llama3.1:8b", Provider: ProviderOllama, ContextTokens: 131072},
	"mistral:7b-instruct":         {Name: "mistral:7b-instruct", Provider: ProviderOllama, ContextTokens: 8192},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, u Usage) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	in := float64(u.PromptTokens) / 1000.0 * mi.InputPerK
	out := float64(u.CompletionTokens) / 1000.0 * mi.OutputPerK
	return in + out, true
}

// LoadCatalogFromJSON reads a JSON object of name -> ModelInfo.
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}

// Catalog returns the catalog sorted by provider, then name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}
