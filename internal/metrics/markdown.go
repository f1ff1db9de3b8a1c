package metrics

import (
	"fmt"
	"strings"
)

// List is a set of metrics with a Markdown rendering.
type List []Metric

// Markdown renders each metric as a section, with code when present.
func (l List) Markdown() string {
	var b strings.Builder
	b.WriteString("[METRICS]\n")
	if len(l) == 0 {
		b.WriteString("(none)\n")
		return b.String()
	}
	for i, m := range l {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, m.Name)
		fmt.Fprintf(&b, "%s\n\n", m.Definition)
		fmt.Fprintf(&b, "Why it matters: %s\n\n", m.Importance)
		fmt.Fprintf(&b, "Formula: `%s`\n\n", m.Formula)
		b.WriteString("Steps:\n")
		for _, step := range strings.Split(string(m.Steps), "\n") {
			if step = strings.TrimSpace(step); step != "" {
				fmt.Fprintf(&b, "- %s\n", step)
			}
		}
		if m.CodeString != nil {
			fmt.Fprintf(&b, "\n```python\n%s\n```\n", strings.TrimRight(*m.CodeString, "\n"))
		}
	}
	return b.String()
}
