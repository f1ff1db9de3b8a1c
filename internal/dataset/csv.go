package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// LoadCSV reads a delimited text file with a header row.
func LoadCSV(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataAccessError{Source: path, Err: err}
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	ds, err := ReadCSV(f, opt)
	if err != nil {
		return nil, &DataAccessError{Source: path, Err: err}
	}
	return ds, nil
}

// ReadCSV reads delimited text from r. Short rows are padded with nulls and
// extra cells are dropped.
func ReadCSV(r io.Reader, opt Options) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	return buildFromRows(header, func(yield func([]string) bool) error {
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read row: %w", err)
			}
			if !yield(rec) {
				return nil
			}
		}
	}, opt)
}

// buildFromRows pivots a header plus row stream into typed columns.
func buildFromRows(header []string, rows func(func([]string) bool) error, opt Options) (*Dataset, error) {
	ncol := len(header)
	if ncol == 0 {
		return nil, ErrNoData
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	cells := make([][]string, ncol)
	n := 0
	err := rows(func(rec []string) bool {
		if n >= maxRows {
			return false
		}
		if isBlankRow(rec) {
			return true
		}
		for i := 0; i < ncol; i++ {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			cells[i] = append(cells[i], v)
		}
		n++
		return true
	})
	if err != nil {
		return nil, err
	}
	cols := make([]Column, ncol)
	for i := range header {
		cols[i] = typeCells(headerName(header[i], i), cells[i], opt)
	}
	return New(cols...)
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
