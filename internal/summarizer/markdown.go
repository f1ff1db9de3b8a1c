package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// Markdown renders a compact report suitable for prompts or standalone docs.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Filename != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Filename))
	}
	if s.Name != "" && s.Name != s.Filename {
		b.WriteString(fmt.Sprintf("Name: %s\n", s.Name))
	}
	if s.Description != nil {
		b.WriteString(fmt.Sprintf("Description: %s\n", safeVal(*s.Description)))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(s.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Columns {
		total := c.NullCount + c.NotNullCount
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.NullCount) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s [%s] (non-null %d, missing %.1f%%)", safeName(c.Column), c.Type, c.DType, c.NotNullCount, missPct))
		switch {
		case c.NumericStats != nil:
			b.WriteString(fmt.Sprintf("; min %s, max %s, mean %s, median %s, std %s",
				num(c.Min), num(c.Max), num(c.Mean), num(c.Median), num(c.Std)))
		case c.DateStats != nil:
			b.WriteString(fmt.Sprintf("; from %s to %s", day(c.MinDate), day(c.MaxDate)))
			if c.MinMaxDiff != nil {
				b.WriteString(fmt.Sprintf(" (span %s)", c.MinMaxDiff))
			}
			if c.ParsedSuccessRate != nil {
				b.WriteString(fmt.Sprintf(", parsed %.0f%%", *c.ParsedSuccessRate*100))
			}
		case c.BooleanStats != nil:
			b.WriteString(fmt.Sprintf("; true %d, false %d", c.TrueCount, c.FalseCount))
		case c.CategoryStats != nil:
			b.WriteString(fmt.Sprintf("; %d categories", c.NCategories))
			if len(c.Categories) > 0 {
				limit := len(c.Categories)
				if limit > 8 {
					limit = 8
				}
				vals := make([]string, limit)
				for i := range vals {
					vals[i] = safeVal(c.Categories[i])
				}
				b.WriteString(": " + strings.Join(vals, ", "))
				if limit < len(c.Categories) {
					b.WriteString(", ...")
				}
			}
		case c.NUnique != nil:
			b.WriteString(fmt.Sprintf("; unique=%d", *c.NUnique))
		}
		if len(c.Samples) > 0 {
			ex := make([]string, len(c.Samples))
			for i, v := range c.Samples {
				ex[i] = safeVal(sampleText(v))
			}
			b.WriteString("; e.g., " + strings.Join(ex, " | "))
		}
		b.WriteString("\n")
		if c.Summary != "" {
			b.WriteString("  " + safeVal(c.Summary) + "\n")
		}
	}
	return b.String()
}

func num(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", *p)
}

func day(t *time.Time) string {
	if t == nil {
		return "n/a"
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func sampleText(v any) string {
	switch x := v.(type) {
	case time.Time:
		return day(&x)
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(x))
	default:
		s := fmt.Sprint(v)
		if len(s) > 80 {
			s = s[:77] + "..."
		}
		return s
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
