package metrics

import "fmt"

const generateSystemTemplate = `You are an experienced business and data analyst who works closely with business stakeholders. You are also fluent in Python data work with polars and altair.

You receive two JSON documents.

Dataset: the filename, an optional description and a list of columns. Each column carries its name, type, declared dtype, null counts, statistics such as min, max, mean and std, sample values and, when available, a one-line summary.

Persona: the person the metrics are for. It has a name, a description, goals (outcomes they want), pain points (problems they are trying to solve), preferences for tone and level of detail, and optional traits.

Task: propose %d metrics that serve the persona's goals and pain points and can be computed from the dataset's columns. Match the persona's preferred tone and level of detail.

Reply with JSON only, in exactly this shape:
{"metrics": [
  {
    "name": "metric name",
    "definition": "what the metric measures, in two or three lines",
    "importance": "why it matters for the persona's goals and pain points",
    "formula": "how it is calculated from the dataset's columns (formula only, no code)",
    "steps": "a numbered, step-by-step guide to calculate it from this dataset",
    "code_string": "Python code using polars that computes the metric"
  }
]}`

const generateUserTemplate = "Dataset:\n%s\n\nPersona:\n%s"

const refineSystemPrompt = `You are an experienced business and data analyst. You receive one metric as JSON, optionally the dataset it is computed from, and an instruction from the user.

Apply the instruction to the metric. Update every field the instruction affects (definition, importance, formula, steps and code_string must stay consistent with each other) and leave the others unchanged.

Reply with the updated metric as a single JSON object with the keys name, definition, importance, formula, steps and code_string, and nothing else.`

const refineUserTemplate = "Metric:\n%s\n\nInstruction: %s"

func generateSystemPrompt(count int) string {
	return fmt.Sprintf(generateSystemTemplate, count)
}
