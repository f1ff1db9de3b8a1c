package summarizer

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/mindscope/internal/dataset"
)

// profileColumn routes a column on its declared Kind. Every Kind reaches a
// handler; KindOther is the catch-all.
func profileColumn(col dataset.Column, cfg Config) ColumnProfile {
	p := ColumnProfile{
		Column:    col.Name(),
		DType:     col.DType().String(),
		NullCount: col.NullCount(),
	}
	p.NotNullCount = col.Len() - p.NullCount

	switch col.DType().Kind {
	case dataset.KindNumeric:
		profileNumeric(&p, col)
	case dataset.KindTemporal:
		profileTemporal(&p, col)
	case dataset.KindBoolean:
		profileBoolean(&p, col)
	case dataset.KindCategorical:
		profileCategorical(&p, col)
	case dataset.KindText:
		profileText(&p, col, cfg)
	default:
		profileOther(&p, col)
	}
	return p
}

// profileNumeric fills min, max, mean, median and the sample standard
// deviation over non-null values. Anything undefined stays null.
func profileNumeric(p *ColumnProfile, col dataset.Column) {
	p.Type = TypeNumeric
	p.NumericStats = &NumericStats{}

	data := make(stats.Float64Data, 0, p.NotNullCount)
	for _, v := range col.NonNull() {
		switch x := v.(type) {
		case float64:
			if !math.IsNaN(x) {
				data = append(data, x)
			}
		case int64:
			data = append(data, float64(x))
		}
	}
	if len(data) == 0 {
		return
	}
	p.Min = statOrNil(stats.Min(data))
	p.Max = statOrNil(stats.Max(data))
	p.Mean = statOrNil(stats.Mean(data))
	p.Median = statOrNil(stats.Median(data))
	if len(data) > 1 {
		p.Std = statOrNil(stats.StandardDeviationSample(data))
	}
}

func statOrNil(v float64, err error) *float64 {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func profileTemporal(p *ColumnProfile, col dataset.Column) {
	p.Type = TypeDate
	times := make([]time.Time, 0, p.NotNullCount)
	for _, v := range col.NonNull() {
		if t, ok := v.(time.Time); ok {
			times = append(times, t)
		}
	}
	p.DateStats = dateRange(times)
}

// dateRange returns min, max and their difference; all three are nil for
// an empty input.
func dateRange(times []time.Time) *DateStats {
	ds := &DateStats{}
	if len(times) == 0 {
		return ds
	}
	lo, hi := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	diff := Duration(hi.Sub(lo))
	ds.MinDate, ds.MaxDate, ds.MinMaxDiff = &lo, &hi, &diff
	return ds
}

func profileBoolean(p *ColumnProfile, col dataset.Column) {
	p.Type = TypeBoolean
	trues := 0
	for _, v := range col.NonNull() {
		if b, ok := v.(bool); ok && b {
			trues++
		}
	}
	p.BooleanStats = &BooleanStats{TrueCount: trues, FalseCount: p.NotNullCount - trues}
}

func profileCategorical(p *ColumnProfile, col dataset.Column) {
	p.Type = TypeCategorical
	p.CategoryStats = categoryStats(col.NonNull())
}

func categoryStats(values []any) *CategoryStats {
	seen := make(map[string]struct{}, len(values))
	cats := make([]string, 0)
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		cats = append(cats, s)
	}
	sort.Strings(cats)
	return &CategoryStats{Categories: cats, NCategories: len(cats)}
}

// profileOther reports counts only, typed by the declared label.
func profileOther(p *ColumnProfile, col dataset.Column) {
	p.Type = col.DType().String()
	if p.Type == "" {
		p.Type = "other"
	}
}
