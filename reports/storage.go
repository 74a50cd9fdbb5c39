// Package reports keeps a flat JSON log of comparison and validation runs.
package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"spectral-signatures/models"
	"spectral-signatures/utils"
)

// DefaultPath is used when no report path is configured.
const DefaultPath = "reports/reports.json"

// Store appends reports to a single JSON array file.
type Store struct {
	Path string
	mu   sync.RWMutex
}

// NewStore returns a store backed by path, or DefaultPath when path is empty.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path}
}

// loadInternal reads the log without taking the lock.
func (s *Store) loadInternal() ([]models.Report, error) {
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return []models.Report{}, nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("error reading reports file: %w", err)
	}

	if len(data) == 0 {
		return []models.Report{}, nil
	}

	var reports []models.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("error unmarshaling reports: %w", err)
	}

	return reports, nil
}

// Load returns every stored report. A missing file is an empty log.
func (s *Store) Load() ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadInternal()
}

// Append adds report to the log, assigning an ID and timestamp when unset.
func (s *Store) Append(report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.loadInternal()
	if err != nil {
		return err
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}

	reports = append(reports, *report)

	dir := filepath.Dir(s.Path)
	if dir != "." && dir != "" {
		if err := utils.CreateFolder(dir); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling reports: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("error writing reports file: %w", err)
	}

	return nil
}

// Record marshals payload into a new report of the given kind and appends it.
func (s *Store) Record(kind string, signatureIDs []string, payload any) (*models.Report, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s payload: %w", kind, err)
	}

	report := &models.Report{
		Kind:         kind,
		SignatureIDs: signatureIDs,
		Payload:      raw,
	}
	if err := s.Append(report); err != nil {
		return nil, err
	}
	return report, nil
}

// ByKind returns the stored reports of one kind, oldest first.
func (s *Store) ByKind(kind string) ([]models.Report, error) {
	all, err := s.Load()
	if err != nil {
		return nil, err
	}

	matched := make([]models.Report, 0, len(all))
	for _, report := range all {
		if report.Kind == kind {
			matched = append(matched, report)
		}
	}
	return matched, nil
}
