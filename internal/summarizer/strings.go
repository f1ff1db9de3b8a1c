package summarizer

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"

	"github.com/KaramelBytes/mindscope/internal/dataset"
)

// dateLayouts are tried in order; the first that parses anything wins.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02/01/2006",
}

var errNotDateLike = errors.New("not date-like")

// profileText decides, in order, whether a text column is date-like,
// categorical or free text. The date check runs first: a handful of
// repeated dates would otherwise pass the categorical test.
func profileText(p *ColumnProfile, col dataset.Column, cfg Config) {
	values := col.NonNull()
	texts := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			texts = append(texts, s)
		}
	}

	if p.NotNullCount > 0 {
		parsed := parseDates(texts)
		rate := float64(len(parsed)) / float64(p.NotNullCount)
		if rate >= cfg.DateLikeThreshold {
			p.Type = TypeDateLikeString
			p.DateStats = dateRange(parsed)
			p.ParsedSuccessRate = &rate
			return
		}
	}

	nUnique := distinctStrings(texts)
	if p.NullCount > 0 {
		nUnique++
	}
	rows := col.Len()
	if rows > 0 && (float64(nUnique)/float64(rows) < cfg.CategoricalThreshold || nUnique < cfg.CategoricalUniqueLimit) {
		p.Type = TypeCategoricalString
		p.CategoryStats = categoryStats(values)
		return
	}

	p.Type = TypeString
	p.NUnique = &nUnique
}

// parseDates returns the values that parse as dates. Explicit layouts are
// tried first; the permissive parser is used only when none of them matched
// a single value.
func parseDates(values []string) []time.Time {
	trimmed := make([]string, len(values))
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
	}
	for _, layout := range dateLayouts {
		layout := layout
		if parsed := parseAll(trimmed, func(s string) (time.Time, error) {
			return time.Parse(layout, s)
		}); len(parsed) > 0 {
			return parsed
		}
	}
	return parseAll(trimmed, parseLoose)
}

func parseAll(values []string, parse func(string) (time.Time, error)) []time.Time {
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		if t, err := parse(v); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// parseLoose accepts anything dateparse recognizes, except values made only
// of digits (dateparse reads those as unix timestamps) or with no digits.
func parseLoose(s string) (time.Time, error) {
	var digit, other bool
	for _, r := range s {
		if unicode.IsDigit(r) {
			digit = true
		} else {
			other = true
		}
	}
	if !digit || !other {
		return time.Time{}, errNotDateLike
	}
	return dateparse.ParseIn(s, time.UTC)
}

func distinctStrings(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
