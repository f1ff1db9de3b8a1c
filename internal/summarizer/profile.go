package summarizer

import (
	"time"

	"github.com/KaramelBytes/mindscope/internal/dataset"
)

// Column profile type tags.
const (
	TypeNumeric           = "numeric"
	TypeDate              = "date"
	TypeBoolean           = "boolean"
	TypeCategorical       = "categorical"
	TypeDateLikeString    = "date-like string"
	TypeCategoricalString = "categorical string"
	TypeString            = "string"
)

// Summary is the profile of a whole dataset.
type Summary struct {
	Filename    string          `json:"filename"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Columns     []ColumnProfile `json:"columns"`
}

// ColumnProfile is the analysis of one column. The embedded stat blocks are
// set only for the column categories they belong to; inside a set block,
// unknown values are JSON nulls.
type ColumnProfile struct {
	Column       string `json:"column"`
	Type         string `json:"type"`
	DType        string `json:"dtype"`
	NullCount    int    `json:"null_count"`
	NotNullCount int    `json:"not_null_count"`

	*NumericStats
	*DateStats
	*BooleanStats
	*CategoryStats

	ParsedSuccessRate *float64 `json:"parsed_success_rate,omitempty"`
	NUnique           *int     `json:"n_unique,omitempty"`

	Samples []any  `json:"samples"`
	Summary string `json:"summary,omitempty"`
}

type NumericStats struct {
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std"`
}

type DateStats struct {
	MinDate    *time.Time `json:"min_date"`
	MaxDate    *time.Time `json:"max_date"`
	MinMaxDiff *Duration  `json:"min_max_diff"`
}

type BooleanStats struct {
	TrueCount  int `json:"true_count"`
	FalseCount int `json:"false_count"`
}

type CategoryStats struct {
	Categories  []string `json:"categories"`
	NCategories int      `json:"n_categories"`
}

// Duration is a time.Duration that serializes as text such as "72h0m0s".
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Clone returns a deep copy of s.
func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	out := &Summary{Filename: s.Filename, Name: s.Name}
	if s.Description != nil {
		d := *s.Description
		out.Description = &d
	}
	if s.Columns != nil {
		out.Columns = make([]ColumnProfile, len(s.Columns))
		for i, c := range s.Columns {
			out.Columns[i] = c.clone()
		}
	}
	return out
}

func (c ColumnProfile) clone() ColumnProfile {
	out := c
	if c.NumericStats != nil {
		n := NumericStats{
			Min: cloneFloat(c.Min), Max: cloneFloat(c.Max), Mean: cloneFloat(c.Mean),
			Median: cloneFloat(c.Median), Std: cloneFloat(c.Std),
		}
		out.NumericStats = &n
	}
	if c.DateStats != nil {
		d := DateStats{MinDate: cloneTime(c.MinDate), MaxDate: cloneTime(c.MaxDate)}
		if c.MinMaxDiff != nil {
			v := *c.MinMaxDiff
			d.MinMaxDiff = &v
		}
		out.DateStats = &d
	}
	if c.BooleanStats != nil {
		b := *c.BooleanStats
		out.BooleanStats = &b
	}
	if c.CategoryStats != nil {
		cs := CategoryStats{NCategories: c.NCategories, Categories: append([]string(nil), c.Categories...)}
		if cs.Categories == nil {
			cs.Categories = []string{}
		}
		out.CategoryStats = &cs
	}
	out.ParsedSuccessRate = cloneFloat(c.ParsedSuccessRate)
	if c.NUnique != nil {
		n := *c.NUnique
		out.NUnique = &n
	}
	out.Samples = make([]any, len(c.Samples))
	for i, v := range c.Samples {
		out.Samples[i] = dataset.CloneValue(v)
	}
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
