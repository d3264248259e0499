package notify

import (
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/config"
	"github.com/lgu-records/recordkeeper/internal/logging"
	"github.com/lgu-records/recordkeeper/types"
)

func TestSendBackupNotification(t *testing.T) {
	s := NewSender(config.SMTPConfig{Host: "smtp.example.org", Port: "587", Username: "u", Password: "p", Sender: "records@example.org"}, logging.Discard())

	var sent *email.Email
	var gotAddr string
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		sent, gotAddr = e, addr
		assert.NotNil(t, auth)
		return nil
	}

	result := types.BackupResult{
		Key:  "backup_20250102_030405.json",
		Size: 1234,
		Info: types.BackupInfo{CreatedBy: "admin", TotalRecords: 7, CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	require.NoError(t, s.SendBackupNotification("clerk@example.org", result))
	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.org:587", gotAddr)
	assert.Equal(t, []string{"clerk@example.org"}, sent.To)
	assert.Contains(t, sent.Subject, result.Key)
	assert.Contains(t, string(sent.Text), "Records: 7")
}

func TestSendBackupNotification_Disabled(t *testing.T) {
	s := NewSender(config.SMTPConfig{}, logging.Discard())
	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("must not send") }
	assert.NoError(t, s.SendBackupNotification("x@example.org", types.BackupResult{}))
	assert.False(t, s.Enabled())
}

func TestSendBackupNotification_Failure(t *testing.T) {
	s := NewSender(config.SMTPConfig{Host: "smtp.example.org", Port: "25"}, logging.Discard())
	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("connection refused") }
	assert.Error(t, s.SendBackupNotification("x@example.org", types.BackupResult{}))
}
