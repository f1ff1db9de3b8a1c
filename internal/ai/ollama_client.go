package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultOllamaHost is where a local Ollama listens by default.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient is a minimal HTTP client for a local Ollama runtime.
type OllamaClient struct {
	httpClient *http.Client
	host       string
	policy     retryPolicy
}

var localRetryDefaults = retryPolicy{maxAttempts: 2, baseDelay: 200 * time.Millisecond, maxDelay: time.Second}

// NewOllamaClient creates a new client targeting the given host (e.g., http://127.0.0.1:11434).
func NewOllamaClient(host string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OllamaClient {
	if host == "" {
		host = DefaultOllamaHost
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		host:       strings.TrimRight(host, "/"),
		policy:     newRetryPolicy(retryMax, baseDelay, maxDelay, localRetryDefaults),
	}
}

// Structures aligned with Ollama /api/chat (non-streaming)
type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// Generate sends a chat request to Ollama and maps the response to GenerateResponse.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, ErrEmptyModel
	}
	if len(req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}

	oreq := ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  map[string]any{},
	}
	if req.Temperature > 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}
	if req.TopP > 0 {
		oreq.Options["top_p"] = req.TopP
	}
	if req.TopK > 0 {
		oreq.Options["top_k"] = req.TopK
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	post := jsonPost{
		client:   c.httpClient,
		provider: ProviderOllama,
		endpoint: c.host + "/api/chat",
		policy:   c.policy,
		classify: classifyLocalError,
		transportErr: func(err error) error {
			return &UnreachableError{Host: c.host, Err: err}
		},
	}
	var out GenerateResponse
	err = post.do(ctx, payload, func(resp *http.Response) error {
		var oresp ollamaChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		out.Choices = []Choice{{Message: Message{Role: RoleAssistant, Content: oresp.Message.Content}}}
		out.Usage = Usage{
			PromptTokens:     oresp.PromptEvalCount,
			CompletionTokens: oresp.EvalCount,
			TotalTokens:      oresp.PromptEvalCount + oresp.EvalCount,
		}
		// Ollama returns no request id; mint one for log correlation.
		out.RequestID = "ollama_" + uuid.NewString()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
