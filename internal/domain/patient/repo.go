package patient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record exists for a patient id.
var ErrNotFound = errors.New("patient record not found")

// ErrInvalidBundle wraps every rejection of an ingest payload.
var ErrInvalidBundle = errors.New("invalid fhir bundle")

// Repository stores one record per patient id. Save replaces any existing
// record.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, patientID string) (*Record, error)
}
