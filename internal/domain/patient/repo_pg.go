package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS patient_record (
    patient_id TEXT PRIMARY KEY,
    record     JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the patient_record table if it is missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		return fmt.Errorf("create patient_record table: %w", err)
	}
	return nil
}

func (r *repoPG) Save(ctx context.Context, rec *Record) error {
	body, err := json.Marshal(rec.Flattened)
	if err != nil {
		return fmt.Errorf("encode patient record: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO patient_record (patient_id, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id) DO UPDATE
		SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		rec.PatientID, body, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save patient record: %w", err)
	}
	return nil
}

func (r *repoPG) Get(ctx context.Context, patientID string) (*Record, error) {
	var body []byte
	rec := &Record{PatientID: patientID}
	err := r.pool.QueryRow(ctx,
		`SELECT record, updated_at FROM patient_record WHERE patient_id = $1`, patientID,
	).Scan(&body, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient record: %w", err)
	}
	if err := json.Unmarshal(body, &rec.Flattened); err != nil {
		return nil, fmt.Errorf("decode patient record: %w", err)
	}
	return rec, nil
}
