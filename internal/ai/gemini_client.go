package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/KaramelBytes/mindscope/internal/logger"
)

// GeminiClient adapts the Gemini API to Runtime.
type GeminiClient struct {
	client *genai.Client
	policy retryPolicy
}

// NewGeminiClient creates a Gemini API client. baseURL overrides the API
// endpoint and is empty in normal use.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: httpTimeout},
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		policy: newRetryPolicy(retryMax, baseDelay, maxDelay, hostedRetryDefaults),
	}, nil
}

// Generate maps system messages to the system instruction and the rest of
// the conversation to user/model contents.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, ErrEmptyModel
	}
	if len(req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}

	var system []string
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, ErrEmptyMessages
	}

	cfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}
	if req.Temperature > 0 {
		cfg.Temperature = float32Ptr(req.Temperature)
	}
	if req.TopP > 0 {
		cfg.TopP = float32Ptr(req.TopP)
	}
	if req.TopK > 0 {
		cfg.TopK = float32Ptr(float64(req.TopK))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
		if err == nil {
			return geminiResponse(result), nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || attempt == c.policy.maxAttempts {
			break
		}
		wait := c.policy.backoff(attempt)
		logger.Log.Warnf("%s: attempt %d/%d failed, retrying in %s: %v", ProviderGemini, attempt, c.policy.maxAttempts, wait, err)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("gemini generate: %w", lastErr)
}

func geminiResponse(result *genai.GenerateContentResponse) *GenerateResponse {
	id := "gemini_" + uuid.NewString()
	out := &GenerateResponse{
		ID:        id,
		RequestID: id,
		Choices:   []Choice{{Message: Message{Role: RoleAssistant, Content: result.Text()}}},
	}
	if u := result.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out
}

func float32Ptr(v float64) *float32 {
	f := float32(v)
	return &f
}
