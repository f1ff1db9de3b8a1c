package dataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Kind is the closed set of column categories the summarizer routes on.
type Kind int

const (
	KindOther Kind = iota
	KindNumeric
	KindTemporal
	KindBoolean
	KindCategorical
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	case KindBoolean:
		return "boolean"
	case KindCategorical:
		return "categorical"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// DType is a declared column element type: a routing Kind plus the label
// reported back in column profiles.
type DType struct {
	Kind Kind
	Name string
}

func (d DType) String() string { return d.Name }

// Declared types produced by the loaders.
var (
	Int64       = DType{Kind: KindNumeric, Name: "i64"}
	Float64     = DType{Kind: KindNumeric, Name: "f64"}
	Date        = DType{Kind: KindTemporal, Name: "date"}
	Datetime    = DType{Kind: KindTemporal, Name: "datetime"}
	Bool        = DType{Kind: KindBoolean, Name: "bool"}
	Categorical = DType{Kind: KindCategorical, Name: "cat"}
	String      = DType{Kind: KindText, Name: "str"}
	Binary      = DType{Kind: KindOther, Name: "binary"}
)

// OtherType returns a catch-all declared type with the given label.
func OtherType(name string) DType { return DType{Kind: KindOther, Name: name} }

// Column is an immutable named sequence of values. Nulls are nil. Element
// types depend on the declared type: int64 (i64), float64 (other numeric),
// time.Time (temporal), bool, string (categorical and text). Other columns
// hold arbitrary values.
type Column struct {
	name   string
	dtype  DType
	values []any
}

// NewColumn validates and copies values into a new Column. Integer inputs
// of i64 columns are kept as int64, integral floats are accepted. Other
// numeric columns widen every input to float64.
func NewColumn(name string, dtype DType, values ...any) (Column, error) {
	out := make([]any, len(values))
	for i, v := range values {
		nv, err := normalize(dtype, v)
		if err != nil {
			return Column{}, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		out[i] = nv
	}
	return Column{name: name, dtype: dtype, values: out}, nil
}

// MustColumn is NewColumn that panics on invalid input. Intended for
// fixtures and literals.
func MustColumn(name string, dtype DType, values ...any) Column {
	c, err := NewColumn(name, dtype, values...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Column) Name() string { return c.name }
func (c Column) DType() DType { return c.dtype }
func (c Column) Len() int     { return len(c.values) }

// Value returns the i-th value; nil is null.
func (c Column) Value(i int) any { return CloneValue(c.values[i]) }

// Values returns a copy of the column values.
func (c Column) Values() []any {
	out := make([]any, len(c.values))
	for i, v := range c.values {
		out[i] = CloneValue(v)
	}
	return out
}

// NonNull returns a copy of the non-null values in row order.
func (c Column) NonNull() []any {
	out := make([]any, 0, len(c.values))
	for _, v := range c.values {
		if v != nil {
			out = append(out, CloneValue(v))
		}
	}
	return out
}

// CloneValue deep-copies the mutable value shapes a column can hold: byte
// slices, decoded JSON arrays and objects. Everything else is returned as is.
func CloneValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return append([]byte(nil), x...)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = CloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// NullCount reports how many values are nil.
func (c Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v == nil {
			n++
		}
	}
	return n
}

func normalize(dtype DType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if dtype == Int64 {
		return toInt64(v)
	}
	switch dtype.Kind {
	case KindNumeric:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int8:
			return float64(x), nil
		case int16:
			return float64(x), nil
		case int32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case uint:
			return float64(x), nil
		case uint8:
			return float64(x), nil
		case uint16:
			return float64(x), nil
		case uint32:
			return float64(x), nil
		case uint64:
			return float64(x), nil
		}
	case KindTemporal:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindCategorical, KindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	default:
		return CloneValue(v), nil
	}
	return nil, fmt.Errorf("value %v (%T) does not fit declared type %s", v, v, dtype)
}

func toInt64(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), nil
		}
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), nil
		}
	case float32:
		return toInt64(float64(x))
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x), nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) does not fit declared type %s", v, v, Int64)
}

// Dataset is a read-only, column-ordered table. Every column has the same
// number of rows. Nothing reachable from a Dataset can be mutated, so
// consumers may read it without copying.
type Dataset struct {
	columns []Column
	rows    int
}

// ErrShape is returned when columns disagree on row count or names collide.
var ErrShape = errors.New("invalid dataset shape")

// New assembles columns into a Dataset.
func New(columns ...Column) (*Dataset, error) {
	d := &Dataset{columns: make([]Column, len(columns))}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrShape, c.name, c.Len(), d.rows)
		}
		if _, dup := seen[c.name]; dup {
			return nil, fmt.Errorf("%w: duplicate column name %q", ErrShape, c.name)
		}
		seen[c.name] = struct{}{}
		d.columns[i] = c
	}
	return d, nil
}

// Rows is the shared row count.
func (d *Dataset) Rows() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Width is the number of columns.
func (d *Dataset) Width() int {
	if d == nil {
		return 0
	}
	return len(d.columns)
}

// IsEmpty reports whether the dataset has no rows or no columns.
func (d *Dataset) IsEmpty() bool {
	return d == nil || d.rows == 0 || len(d.columns) == 0
}

// Columns returns the columns in declared order.
func (d *Dataset) Columns() []Column {
	if d == nil {
		return nil
	}
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Column looks a column up by name.
func (d *Dataset) Column(name string) (Column, bool) {
	if d == nil {
		return Column{}, false
	}
	for _, c := range d.columns {
		if c.name == name {
			return c, true
		}
	}
	return Column{}, false
}
