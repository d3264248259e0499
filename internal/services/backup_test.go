package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/storage"
	"github.com/lgu-records/recordkeeper/types"
)

type capturedNotice struct {
	to     string
	result types.BackupResult
}

type fakeNotifier struct {
	sent []capturedNotice
}

func (n *fakeNotifier) SendBackupNotification(to string, result types.BackupResult) error {
	n.sent = append(n.sent, capturedNotice{to: to, result: result})
	return nil
}

func TestBackupService_CreateAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notifier := &fakeNotifier{}
	f.backups.notifier = notifier
	f.backups.notifyEmail = "ops@example.org"
	f.backups.now = func() time.Time { return time.Date(2025, 8, 1, 13, 4, 5, 0, time.UTC) }

	_, err := f.backups.Create(ctx, admin)
	assert.ErrorIs(t, err, ErrValidation)

	f.add(t, "Treasury", "Budget", "Mayor", "2025-01-02")
	done := f.add(t, "Engineering", "Permit", "Council", "")
	_, err = f.records.SetStatus(ctx, clerk, done.ID, types.StatusCompleted)
	require.NoError(t, err)

	_, err = f.backups.Create(ctx, clerk)
	assert.ErrorIs(t, err, access.ErrPermissionDenied)

	result, err := f.backups.Create(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "backup_20250801_130405.json", result.Key)
	assert.Equal(t, 2, result.Info.TotalRecords)
	assert.Equal(t, "admin", result.Info.CreatedBy)
	assert.NotEmpty(t, result.Info.ID)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "ops@example.org", notifier.sent[0].to)

	listed, err := f.backups.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, result.Key, listed[0].Key)

	rc, err := f.backups.Open(ctx, admin, result.Key)
	require.NoError(t, err)
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	var doc types.BackupDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, types.BackupVersion, doc.Info.BackupVersion)
	assert.Len(t, doc.Records, 2)
	assert.Equal(t, 1, doc.Statistics.CompletedCount)

	f.add(t, "Extra", "x", "y", "")
	restored, err := f.backups.RestoreKey(ctx, admin, result.Key, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Restored)
	assert.Equal(t, 2, f.store.Count())

	list := f.store.List()
	assert.Equal(t, "MAYOR'S OFFICE - 001", list[0].ID)
	assert.Equal(t, "2025-01-02", list[0].Date)
	assert.Equal(t, types.StatusCompleted, list[1].Status)

	restored, err = f.backups.RestoreKey(ctx, admin, result.Key, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 4, f.store.Count())
	assert.Equal(t, ModeAppend, restored.Mode)
}

func TestBackupService_RestoreLegacyDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy := `{
	  "backup_info": {"created_at": "2024-05-06T07:08:09.123456", "created_by": "admin", "total_records": 3, "backup_version": "1.0"},
	  "records": [
	    {"id": "LGU - 009", "date": "May 6, 2024", "sender": "A", "subject": "a", "destination": "x", "status": "Completed"},
	    {"id": "LGU - 010", "sender": "", "subject": "b", "destination": "x"},
	    {"id": "LGU - 011", "date": "2024-05-07", "sender": "C", "subject": "c", "destination": "y"}
	  ]
	}`
	res, err := f.backups.Restore(ctx, admin, strings.NewReader(legacy), ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Restored)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2024, res.Info.CreatedAt.Year())

	list := f.store.List()
	assert.Equal(t, "2024-05-06", list[0].Date)
	assert.Equal(t, types.StatusPending, list[1].Status)
	assert.Equal(t, "MAYOR'S OFFICE - 002", list[1].ID)
}

func TestBackupService_RestoreRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "A", "a", "x", "")

	for _, body := range []string{
		`not json`,
		`{"records": []}`,
		`{"backup_info": {}}`,
		`{"backup_info": {}, "records": [{"sender": "", "subject": "x"}]}`,
	} {
		_, err := f.backups.Restore(ctx, admin, strings.NewReader(body), ModeReplace)
		assert.ErrorIs(t, err, ErrValidation, body)
	}
	assert.Equal(t, 1, f.store.Count())

	_, err := f.backups.Restore(ctx, clerk, bytes.NewReader(nil), ModeReplace)
	assert.ErrorIs(t, err, access.ErrPermissionDenied)

	_, err = f.backups.Open(ctx, admin, "backup_19990101_000000.json")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = f.backups.Open(ctx, admin, "records.json")
	assert.ErrorIs(t, err, ErrValidation)
}
