package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LoadFile reads a dataset chosen by file extension: .csv, .tsv, .json or
// .xlsx. A source without data rows is a DataAccessError.
func LoadFile(path string, opt Options) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		ds, err = LoadCSV(path, opt)
	case ".json":
		ds, err = LoadJSON(path, opt)
	case ".xlsx":
		ds, err = LoadXLSX(path, opt)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if ds.IsEmpty() {
		return nil, &DataAccessError{Source: path, Err: ErrNoData}
	}
	return ds, nil
}

// SupportedExtensions lists the file extensions LoadFile accepts.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".json", ".xlsx"}
}
