package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData marks a source or dataset with no rows where rows are required.
	ErrNoData = errors.New("no data")
	// ErrUnsupportedFormat marks a file extension no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// DataAccessError reports a dataset that is missing, empty, or unreadable.
type DataAccessError struct {
	Source string
	Err    error
}

func (e *DataAccessError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("data access: %v", e.Err)
	}
	return fmt.Sprintf("data access %s: %v", e.Source, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }
