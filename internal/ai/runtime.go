package ai

import "context"

// Runtime is the text-generation capability used by the summarizer and the
// metric generator. Implementations cover hosted OpenAI-compatible APIs,
// Gemini and local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used for runtime selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is an OpenAI-style chat completion request. TopK is not
// part of the OpenAI schema; providers that lack it ignore it.
type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	TopK        int       `json:"top_k,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the content of the first choice, or "" when there is none.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// GenerationConfig holds the sampling parameters applied to every request a
// caller builds.
type GenerationConfig struct {
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	TopP        float64 `json:"top_p" yaml:"top_p"`
	TopK        int     `json:"top_k" yaml:"top_k"`
}

// DefaultGenerationConfig returns the general-purpose sampling defaults.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Model:       "gpt-4o-mini",
		Temperature: 0.8,
		TopP:        1.0,
		TopK:        25,
	}
}

// Request builds a GenerateRequest carrying these parameters.
func (c GenerationConfig) Request(msgs ...Message) GenerateRequest {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return GenerateRequest{
		Model:       c.Model,
		Messages:    out,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		TopP:        c.TopP,
		TopK:        c.TopK,
	}
}

// System and User build single messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message { return Message{Role: RoleUser, Content: content} }
