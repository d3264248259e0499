// Package notify sends operator notifications by email.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/lgu-records/recordkeeper/config"
	"github.com/lgu-records/recordkeeper/types"
)

// SendFunc delivers a composed message. It matches (*email.Email).Send
// bound to a message, so tests can capture mail without an SMTP server.
type SendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending emails via SMTP.
type Sender struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
	send   SendFunc
}

// NewSender creates a new email sender.
func NewSender(cfg config.SMTPConfig, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Enabled reports whether an SMTP host is configured.
func (s *Sender) Enabled() bool {
	return s != nil && strings.TrimSpace(s.cfg.Host) != ""
}

// SendBackupNotification tells to that a backup was written.
func (s *Sender) SendBackupNotification(to string, result types.BackupResult) error {
	if !s.Enabled() {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.Sender
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Record backup %s", result.Key)

	body := fmt.Sprintf(
		"A backup of the document records was created.\n\n"+
			"File: %s\n"+
			"Records: %d\n"+
			"Created by: %s\n"+
			"Created at: %s\n"+
			"Size: %d bytes\n",
		result.Key,
		result.Info.TotalRecords,
		result.Info.CreatedBy,
		result.Info.CreatedAt.Format("2006-01-02 15:04:05"),
		result.Size,
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send backup notification to %s: %v", to, err)
		return fmt.Errorf("failed to send backup notification: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
