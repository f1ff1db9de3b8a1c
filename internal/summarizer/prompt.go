package summarizer

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mindscope/internal/ai"
)

const enrichSystemPrompt = `You are a data analyst documenting a dataset for business users.
You receive a JSON summary of a dataset: its name, an optional description and one entry per column with statistics and sample values.

Return the same JSON object with two additions:
1. If "description" is null or empty, write a short description of what the dataset contains.
2. For every entry in "columns", add a "summary" key holding one or two lines that explain what the column represents and what its statistics show.

Rules:
- Reply with a single JSON object and nothing else.
- Keep "column" names exactly as given and keep the column order.
- Base every statement on the values in the input; do not invent facts.

Example input:
{"filename":"orders.csv","name":"orders.csv","description":null,"columns":[{"column":"total","type":"numeric","dtype":"f64","null_count":0,"not_null_count":120,"min":3.5,"max":420,"mean":61.2,"median":48,"std":40.1,"samples":[12,48,99.5]}]}

Example output:
{"filename":"orders.csv","name":"orders.csv","description":"Customer orders with their billed totals.","columns":[{"column":"total","type":"numeric","dtype":"f64","null_count":0,"not_null_count":120,"min":3.5,"max":420,"mean":61.2,"median":48,"std":40.1,"samples":[12,48,99.5],"summary":"Order value in currency units; most orders sit between 20 and 100 with a long tail up to 420."}]}`

const enrichUserTemplate = "Generate a summary for the following dataset.\n\nDataset: %s"

// EnrichGenerationConfig returns the sampling parameters used for
// enrichment when the caller does not supply its own.
func EnrichGenerationConfig() ai.GenerationConfig {
	cfg := ai.DefaultGenerationConfig()
	cfg.Temperature = 0.2
	cfg.MaxTokens = 4028
	return cfg
}

func enrichMessages(payload []byte) []ai.Message {
	return []ai.Message{
		ai.System(enrichSystemPrompt),
		ai.User(fmt.Sprintf(enrichUserTemplate, payload)),
	}
}

// StripCodeFence removes a surrounding ``` or ```json fence from a model
// reply.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
