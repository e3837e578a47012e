package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/platform/fhir"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Ingest flattens a raw FHIR bundle and stores it under patientID,
// replacing any earlier record.
func (s *Service) Ingest(ctx context.Context, patientID string, bundle json.RawMessage) (*IngestResponse, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidBundle)
	}
	if len(bytes.TrimSpace(bundle)) == 0 || bytes.Equal(bytes.TrimSpace(bundle), []byte("null")) {
		return nil, fmt.Errorf("%w: bundle is required", ErrInvalidBundle)
	}
	b, err := fhir.DecodeBundle(bundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	rec := &Record{PatientID: patientID, Flattened: fhir.Flatten(b), UpdatedAt: s.now().UTC()}
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("store patient %s: %w", patientID, err)
	}
	counts := rec.Counts()
	s.logger.Info().Str("patient_id", patientID).Interface("counts", counts).Msg("fhir bundle ingested")
	return &IngestResponse{Ingested: true, PatientID: patientID, Counts: counts}, nil
}

func (s *Service) Get(ctx context.Context, patientID string) (*Record, error) {
	return s.repo.Get(ctx, patientID)
}
