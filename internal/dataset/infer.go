package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Options controls how file and SQL sources are read into a Dataset.
type Options struct {
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, tab for .tsv files and comma otherwise.
	Delimiter rune
	// DecimalSeparator for numeric text cells. 0 or '.' means plain Go float syntax;
	// ',' treats '.' and spaces as thousands separators.
	DecimalSeparator rune
	// SheetName selects an XLSX sheet by name; takes precedence over SheetIndex.
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based index when SheetName is empty.
	SheetIndex int
}

// DefaultOptions reads whole files with comma-separated, dot-decimal cells.
func DefaultOptions() Options {
	return Options{}
}

// typeCells builds a typed Column from the raw text cells of one column.
// Empty cells become nulls. A column is i64 when every non-empty cell is an
// integer, f64 when every cell is a number, bool when every cell is
// true/false, and str otherwise. Date text is left as str.
func typeCells(name string, cells []string, opt Options) Column {
	var nonEmpty int
	allInt, allNum, allBool := true, true, true
	for _, raw := range cells {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		nonEmpty++
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allNum {
			if _, ok := parseNumeric(s, opt); !ok {
				allNum = false
			}
		}
		if allBool {
			if _, ok := parseBool(s); !ok {
				allBool = false
			}
		}
	}

	dtype := String
	switch {
	case nonEmpty == 0:
	case allInt:
		dtype = Int64
	case allNum:
		dtype = Float64
	case allBool:
		dtype = Bool
	}

	values := make([]any, len(cells))
	for i, raw := range cells {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		switch dtype {
		case Int64:
			n, _ := strconv.ParseInt(s, 10, 64)
			values[i] = n
		case Float64:
			f, _ := parseNumeric(s, opt)
			if math.IsNaN(f) {
				continue
			}
			values[i] = f
		case Bool:
			values[i], _ = parseBool(s)
		default:
			values[i] = raw
		}
	}
	return Column{name: name, dtype: dtype, values: values}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// parseNumeric parses a numeric cell under the configured decimal separator.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if opt.DecimalSeparator == ',' {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, " ", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func headerName(h string, i int) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return "column_" + strconv.Itoa(i+1)
	}
	return h
}
