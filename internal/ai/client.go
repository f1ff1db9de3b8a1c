package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Base URLs of the OpenAI-compatible chat completion APIs.
const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OpenAIBaseURL     = "https://api.openai.com/v1"
)

// Client talks to an OpenAI-compatible /chat/completions endpoint.
// OpenRouter is the default; OpenAI itself is reached by base URL.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	sendTopK   bool
	policy     retryPolicy
}

var hostedRetryDefaults = retryPolicy{maxAttempts: 3, baseDelay: 500 * time.Millisecond, maxDelay: 4 * time.Second}

// NewOpenRouterClient returns a client with default timeouts and retry strategy.
func NewOpenRouterClient(apiKey string) *Client {
	return NewClient(apiKey, 0, 0, 0, 0)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
// Zero values select the defaults.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    OpenRouterBaseURL,
		sendTopK:   true,
		policy:     newRetryPolicy(retryMax, baseDelay, maxDelay, hostedRetryDefaults),
	}
}

// NewClientWithBaseURL points the client at another compatible API. The
// official OpenAI endpoint rejects top_k, so it is dropped there.
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	c.sendTopK = c.baseURL != OpenAIBaseURL
	return c
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Model == "" {
		return nil, ErrEmptyModel
	}
	if len(req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}
	if !c.sendTopK {
		req.TopK = 0
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	post := jsonPost{
		client:   c.httpClient,
		provider: "chat",
		endpoint: c.baseURL + "/chat/completions",
		header: http.Header{
			"Authorization": {"Bearer " + c.apiKey},
			"HTTP-Referer":  {"https://github.com/KaramelBytes/mindscope"},
			"X-Title":       {"mindscope"},
		},
		policy:   c.policy,
		classify: classifyAPIError,
	}
	var out GenerateResponse
	err = post.do(ctx, payload, func(resp *http.Response) error {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		out.RequestID = extractRequestID(resp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
