package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

// Metric is a persona-specific measure proposed by the model. It is never
// computed locally.
type Metric struct {
	Name       string  `json:"name" yaml:"name"`
	Definition string  `json:"definition" yaml:"definition"`
	Importance string  `json:"importance" yaml:"importance"`
	Formula    string  `json:"formula" yaml:"formula"`
	Steps      Steps   `json:"steps" yaml:"steps"`
	CodeString *string `json:"code_string,omitempty" yaml:"code_string,omitempty"`
}

// Steps is the step-by-step calculation guide. Models answer with either a
// single string or a list of strings; a list is joined with newlines.
type Steps string

func (s *Steps) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("steps: %w", err)
		}
		*s = Steps(strings.Join(list, "\n"))
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("steps: %w", err)
	}
	*s = Steps(str)
	return nil
}

// Validate reports the first required field that is empty.
func (m Metric) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", m.Name},
		{"definition", m.Definition},
		{"importance", m.Importance},
		{"formula", m.Formula},
		{"steps", string(m.Steps)},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing field %q", f.name)
		}
	}
	return nil
}

// ErrNoMetrics marks a reply that parsed but held no metrics.
var ErrNoMetrics = errors.New("response contains no metrics")

// MetricParsingError reports a model reply that could not be turned into
// valid metrics. Raw holds the reply text.
type MetricParsingError struct {
	Raw string
	Err error
}

func (e *MetricParsingError) Error() string {
	return fmt.Sprintf("parse metrics: %v", e.Err)
}

func (e *MetricParsingError) Unwrap() error { return e.Err }

// ParseMetrics decodes a reply of the form {"metrics":[...]}. A bare array
// and a surrounding markdown fence are accepted too.
func ParseMetrics(text string) ([]Metric, error) {
	body := summarizer.StripCodeFence(text)
	fail := func(err error) error { return &MetricParsingError{Raw: text, Err: err} }
	if body == "" || body == "null" {
		return nil, fail(ErrNoMetrics)
	}

	var list []Metric
	switch body[0] {
	case '{':
		var wrapper struct {
			Metrics []Metric `json:"metrics"`
		}
		if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
			return nil, fail(err)
		}
		list = wrapper.Metrics
	case '[':
		if err := json.Unmarshal([]byte(body), &list); err != nil {
			return nil, fail(err)
		}
	default:
		return nil, fail(fmt.Errorf("expected JSON, got %q", head(body, 40)))
	}
	if len(list) == 0 {
		return nil, fail(ErrNoMetrics)
	}
	for i := range list {
		list[i].normalize()
		if err := list[i].Validate(); err != nil {
			return nil, fail(fmt.Errorf("metric %d: %w", i, err))
		}
	}
	return list, nil
}

// parseMetric decodes a single metric object, as returned by Refine.
func parseMetric(text string) (Metric, error) {
	body := summarizer.StripCodeFence(text)
	var m Metric
	if !strings.HasPrefix(body, "{") {
		return m, &MetricParsingError{Raw: text, Err: fmt.Errorf("expected a JSON object, got %q", head(body, 40))}
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return m, &MetricParsingError{Raw: text, Err: err}
	}
	if _, wrapped := envelope["metrics"]; wrapped {
		list, err := ParseMetrics(body)
		if err != nil {
			return m, err
		}
		return list[0], nil
	}
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return m, &MetricParsingError{Raw: text, Err: err}
	}
	m.normalize()
	if err := m.Validate(); err != nil {
		return m, &MetricParsingError{Raw: text, Err: err}
	}
	return m, nil
}

func (m *Metric) normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Steps = Steps(strings.TrimSpace(string(m.Steps)))
	if m.CodeString != nil && strings.TrimSpace(*m.CodeString) == "" {
		m.CodeString = nil
	}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
