package ai

import (
	"fmt"

	"github.com/KaramelBytes/mindscope/internal/logger"
)

// LogUsage records token usage, and a cost estimate when the model is in
// the catalog, for a finished call.
func LogUsage(call, model string, resp *GenerateResponse) {
	if resp == nil {
		return
	}
	fields := logger.Fields{
		"call":              call,
		"model":             model,
		"request_id":        resp.RequestID,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}
	if cost, ok := EstimateCostUSD(model, resp.Usage); ok {
		fields["cost_usd"] = fmt.Sprintf("%.6f", cost)
	}
	logger.InfoWithFields("generation finished", fields)
}
