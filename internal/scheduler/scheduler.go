// Package scheduler runs periodic jobs on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner whose jobs log their failures.
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name on a standard five-field cron expression or a
// descriptor such as "@daily". An empty expr registers nothing.
func (s *Scheduler) Add(name, expr string, job Job) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	_, err := s.cron.AddFunc(expr, func() {
		entry := s.logger.WithField("job", name)
		entry.Info("scheduled job started")
		if err := job(s.ctx); err != nil {
			entry.WithError(err).Error("scheduled job failed")
			return
		}
		entry.Info("scheduled job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, expr, err)
	}
	return nil
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels the context handed to running jobs and
// waits for them to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
}
