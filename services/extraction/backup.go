package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hkracing-backend/lib/scrapers/hkjc"
)

// backup writes a record to the local backup directory before any
// push. the file is the source of truth for later re-uploads.
func (s Service) backup(key hkjc.RaceKey, recordType string, record any) error {
	if s.opts.BackupDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.opts.BackupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s backup: %w", recordType, err)
	}

	path := filepath.Join(s.opts.BackupDir, key.BackupFileName(recordType))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s backup: %w", recordType, err)
	}
	return nil
}

// LoadOddsBackup reads a previously written odds backup for re-upload.
func LoadOddsBackup(dir string, key hkjc.RaceKey) (hkjc.OddsRecord, error) {
	var record hkjc.OddsRecord
	err := loadBackup(dir, key, "odds", &record)
	return record, err
}

// LoadResultsBackup reassembles a results bundle from its backup
// files. missing payout or incident files leave zero sub-records, the
// same shape a page without those sections produces.
func LoadResultsBackup(dir string, key hkjc.RaceKey) (ResultsBundle, error) {
	var bundle ResultsBundle
	if err := loadBackup(dir, key, "results", &bundle.Results); err != nil {
		return bundle, err
	}
	if err := loadBackup(dir, key, "payouts", &bundle.Payouts); err != nil && !os.IsNotExist(err) {
		return bundle, err
	}
	if err := loadBackup(dir, key, "incidents", &bundle.Incidents); err != nil && !os.IsNotExist(err) {
		return bundle, err
	}
	if err := loadBackup(dir, key, "incident_analysis", &bundle.Analysis); err != nil && !os.IsNotExist(err) {
		return bundle, err
	}
	return bundle, nil
}

func loadBackup(dir string, key hkjc.RaceKey, recordType string, out any) error {
	data, err := os.ReadFile(filepath.Join(dir, key.BackupFileName(recordType)))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s backup for %s: %w", recordType, key, err)
	}
	return nil
}

// UploadBackups pushes previously backed-up records for one race
// without re-scraping.
func (s Service) UploadBackups(ctx context.Context, key hkjc.RaceKey) error {
	ctx, span := tracer.Start(ctx, "UploadBackups")
	defer span.End()

	odds, err := LoadOddsBackup(s.opts.BackupDir, key)
	switch {
	case err == nil:
		if err := s.pushOdds(ctx, key, odds); err != nil {
			return err
		}
	case !os.IsNotExist(err):
		return err
	}

	bundle, err := LoadResultsBackup(s.opts.BackupDir, key)
	switch {
	case err == nil:
		return s.pushResults(ctx, key, bundle)
	case !os.IsNotExist(err):
		return err
	}
	return nil
}
