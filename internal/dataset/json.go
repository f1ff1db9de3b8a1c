package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// LoadJSON reads a JSON array of flat objects. Column order follows first
// appearance of each key; keys missing from a record are nulls.
func LoadJSON(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataAccessError{Source: path, Err: err}
	}
	defer f.Close()
	ds, err := ReadJSON(f, opt)
	if err != nil {
		return nil, &DataAccessError{Source: path, Err: err}
	}
	return ds, nil
}

// ReadJSON decodes records from r. Numbers become i64 or f64 columns,
// booleans bool, strings str; nested values and mixed columns are kept as
// "object" columns.
func ReadJSON(r io.Reader, opt Options) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("read json: expected array of records")
	}

	var order []string
	cols := map[string][]any{}
	n := 0
	for dec.More() {
		if opt.MaxRows > 0 && n >= opt.MaxRows {
			break
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		keys, rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		for _, k := range keys {
			if _, seen := cols[k]; !seen {
				order = append(order, k)
				cols[k] = make([]any, n)
			}
		}
		for _, k := range order {
			cols[k] = append(cols[k], rec[k])
		}
		n++
	}
	if len(order) == 0 {
		return nil, ErrNoData
	}

	out := make([]Column, 0, len(order))
	for _, k := range order {
		out = append(out, jsonColumn(k, cols[k]))
	}
	return New(out...)
}

// decodeRecord returns the keys of a JSON object in document order.
func decodeRecord(raw json.RawMessage) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object")
	}
	var keys []string
	rec := map[string]any{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = v
	}
	return keys, rec, nil
}

func jsonColumn(name string, vals []any) Column {
	allInt, allNum, allBool, allStr := true, true, true, true
	nonNull := 0
	for _, v := range vals {
		if v == nil {
			continue
		}
		nonNull++
		switch x := v.(type) {
		case json.Number:
			allBool, allStr = false, false
			if _, err := x.Int64(); err != nil {
				allInt = false
			}
		case bool:
			allInt, allNum, allStr = false, false, false
		case string:
			allInt, allNum, allBool = false, false, false
		default:
			allInt, allNum, allBool, allStr = false, false, false, false
		}
	}

	dtype := OtherType("object")
	switch {
	case nonNull == 0:
		dtype = String
	case allInt:
		dtype = Int64
	case allNum:
		dtype = Float64
	case allBool:
		dtype = Bool
	case allStr:
		dtype = String
	}

	values := make([]any, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		if num, ok := v.(json.Number); ok && dtype == Int64 {
			n, err := num.Int64()
			if err != nil {
				continue
			}
			values[i] = n
			continue
		}
		if num, ok := v.(json.Number); ok && dtype.Kind == KindNumeric {
			f, err := num.Float64()
			if err != nil || math.IsNaN(f) {
				continue
			}
			values[i] = f
			continue
		}
		values[i] = v
	}
	return Column{name: name, dtype: dtype, values: values}
}
