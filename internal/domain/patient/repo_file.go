package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileRepo keeps every record in one JSON object keyed by patient id and
// rewrites the whole file on each save.
type fileRepo struct {
	mu      sync.RWMutex
	path    string
	records map[string]*Record
}

// NewFileRepo loads path if it exists. A missing file starts an empty store.
func NewFileRepo(path string) (Repository, error) {
	r := &fileRepo{path: path, records: make(map[string]*Record)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read patient store: %w", err)
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.records); err != nil {
		return nil, fmt.Errorf("decode patient store %s: %w", path, err)
	}
	for id, rec := range r.records {
		if rec == nil {
			delete(r.records, id)
			continue
		}
		rec.PatientID = id
	}
	return r, nil
}

func (r *fileRepo) Save(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.records[rec.PatientID]
	r.records[rec.PatientID] = rec
	if err := r.flush(); err != nil {
		if had {
			r.records[rec.PatientID] = prev
		} else {
			delete(r.records, rec.PatientID)
		}
		return err
	}
	return nil
}

func (r *fileRepo) Get(_ context.Context, patientID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// flush writes through a temp file and rename so readers never see a
// partial store. Caller holds the write lock.
func (r *fileRepo) flush() error {
	data, err := json.Marshal(r.records)
	if err != nil {
		return fmt.Errorf("encode patient store: %w", err)
	}
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".patients-*.json")
	if err != nil {
		return fmt.Errorf("write patient store: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write patient store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write patient store: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace patient store: %w", err)
	}
	return nil
}
