package summarizer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRuntime is returned when enrichment is requested from a
	// Summarizer built without a runtime.
	ErrNoRuntime = errors.New("no text-generation runtime configured")
	// ErrEmptyResponse marks an enrichment reply with no JSON object in it.
	ErrEmptyResponse = errors.New("empty enrichment response")
)

// SummaryEnrichmentError reports that enrichment was requested and did not
// happen: the runtime call failed or its reply could not be parsed.
type SummaryEnrichmentError struct {
	Err error
}

func (e *SummaryEnrichmentError) Error() string {
	return fmt.Sprintf("summary enrichment failed: %v", e.Err)
}

func (e *SummaryEnrichmentError) Unwrap() error { return e.Err }
