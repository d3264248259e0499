package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/dates"
	"github.com/lgu-records/recordkeeper/internal/storage"
	"github.com/lgu-records/recordkeeper/types"
)

// BackupPrefix starts every backup object key.
const BackupPrefix = "backup_"

// SystemActor performs scheduled work.
var SystemActor = types.User{Username: "scheduler", Role: types.RoleAdmin}

// Notifier announces finished backups.
type Notifier interface {
	SendBackupNotification(to string, result types.BackupResult) error
}

// RestoreResult reports what a restore did.
type RestoreResult struct {
	Mode     LoadMode         `json:"mode"`
	Restored int              `json:"restored"`
	Skipped  int              `json:"skipped"`
	Info     types.BackupInfo `json:"backup_info"`
}

// BackupService writes and restores point-in-time snapshots.
type BackupService struct {
	records     *RecordService
	storage     *storage.Storage
	notifier    Notifier
	notifyEmail string
	logger      *logrus.Logger
	now         func() time.Time
}

func NewBackupService(records *RecordService, objects *storage.Storage, notifier Notifier, notifyEmail string, logger *logrus.Logger) *BackupService {
	return &BackupService{
		records:     records,
		storage:     objects,
		notifier:    notifier,
		notifyEmail: strings.TrimSpace(notifyEmail),
		logger:      logger,
		now:         time.Now,
	}
}

// Create snapshots every record with statistics and metadata and stores
// it as backup_YYYYMMDD_HHMMSS.json. An empty store is refused.
func (s *BackupService) Create(ctx context.Context, actor types.User) (types.BackupResult, error) {
	if err := access.Check(actor.Role, access.OpBackup); err != nil {
		return types.BackupResult{}, err
	}

	records := s.records.repo.List()
	if len(records) == 0 {
		return types.BackupResult{}, validationError("no records to back up")
	}

	now := s.now()
	doc := types.BackupDocument{
		Info: types.BackupInfo{
			ID:            uuid.NewString(),
			CreatedAt:     now,
			CreatedBy:     actor.Username,
			TotalRecords:  len(records),
			BackupVersion: types.BackupVersion,
		},
		Records:    records,
		Statistics: s.records.repo.Statistics(),
	}
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return types.BackupResult{}, err
	}

	key := BackupKey(now)
	if err := s.storage.Put(ctx, key, bytes.NewReader(buf), int64(len(buf)), "application/json"); err != nil {
		return types.BackupResult{}, fmt.Errorf("store backup %s: %w", key, err)
	}

	result := types.BackupResult{Key: key, Size: int64(len(buf)), Info: doc.Info}
	s.logger.WithFields(logrus.Fields{
		"key":     key,
		"bucket":  s.storage.Bucket(),
		"records": len(records),
		"user":    actor.Username,
	}).Info("backup created")

	if s.notifier != nil && s.notifyEmail != "" {
		if err := s.notifier.SendBackupNotification(s.notifyEmail, result); err != nil {
			s.logger.WithError(err).Warn("backup notification failed")
		}
	}
	return result, nil
}

// List returns stored backups, newest first.
func (s *BackupService) List(ctx context.Context, actor types.User) ([]storage.ObjectInfo, error) {
	if err := access.Check(actor.Role, access.OpBackup); err != nil {
		return nil, err
	}
	return s.storage.List(ctx, BackupPrefix)
}

// Open returns a reader for the backup stored under key.
func (s *BackupService) Open(ctx context.Context, actor types.User, key string) (io.ReadCloser, error) {
	if err := access.Check(actor.Role, access.OpBackup); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, BackupPrefix) {
		return nil, validationError("not a backup key: %q", key)
	}
	return s.storage.Get(ctx, key)
}

// RestoreKey restores the backup stored under key.
func (s *BackupService) RestoreKey(ctx context.Context, actor types.User, key string, mode LoadMode) (RestoreResult, error) {
	rc, err := s.Open(ctx, actor, key)
	if err != nil {
		return RestoreResult{}, err
	}
	defer rc.Close()
	return s.Restore(ctx, actor, rc, mode)
}

// Restore loads a backup document. Records keep their date and status
// but receive fresh identifiers; records without sender or subject are
// skipped. The store is untouched when nothing valid remains.
func (s *BackupService) Restore(ctx context.Context, actor types.User, r io.Reader, mode LoadMode) (RestoreResult, error) {
	if err := access.Check(actor.Role, access.OpRestore); err != nil {
		return RestoreResult{}, err
	}

	var doc struct {
		Info    *backupInfoWire `json:"backup_info"`
		Records *[]types.Record `json:"records"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return RestoreResult{}, validationError("invalid backup file: %v", err)
	}
	if doc.Info == nil || doc.Records == nil {
		return RestoreResult{}, validationError("invalid backup file: backup_info and records are required")
	}

	result := RestoreResult{Mode: mode, Info: doc.Info.info()}
	valid := make([]types.Record, 0, len(*doc.Records))
	for _, rec := range *doc.Records {
		if strings.TrimSpace(rec.Sender) == "" || strings.TrimSpace(rec.Subject) == "" {
			result.Skipped++
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return RestoreResult{}, validationError("no valid records found in backup")
	}

	added, err := s.records.load(ctx, valid, mode, "restore")
	if err != nil {
		return RestoreResult{}, err
	}
	result.Restored = len(added)

	s.logger.WithFields(logrus.Fields{
		"backup_id": result.Info.ID,
		"mode":      mode,
		"restored":  result.Restored,
		"skipped":   result.Skipped,
		"user":      actor.Username,
	}).Info("backup restored")
	return result, nil
}

// BackupKey names a backup taken at t.
func BackupKey(t time.Time) string {
	return fmt.Sprintf("%s%s.json", BackupPrefix, t.Format("20060102_150405"))
}

// backupInfoWire accepts created_at in any form the date normalizer
// understands, since older backups used a naive ISO timestamp.
type backupInfoWire struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"created_at"`
	CreatedBy     string `json:"created_by"`
	TotalRecords  int    `json:"total_records"`
	BackupVersion string `json:"backup_version"`
}

func (w backupInfoWire) info() types.BackupInfo {
	info := types.BackupInfo{
		ID:            w.ID,
		CreatedBy:     w.CreatedBy,
		TotalRecords:  w.TotalRecords,
		BackupVersion: w.BackupVersion,
	}
	if info.BackupVersion == "" {
		info.BackupVersion = types.BackupVersion
	}
	if t, err := time.Parse(time.RFC3339Nano, w.CreatedAt); err == nil {
		info.CreatedAt = t
	} else if p, ok := dates.Parse(w.CreatedAt).(dates.Parsed); ok {
		info.CreatedAt = p.Time
	}
	return info
}
