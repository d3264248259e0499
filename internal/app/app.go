// Package app builds the stores, services and background workers shared
// by the HTTP server, the terminal menu and the one-shot commands.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lgu-records/recordkeeper/config"
	"github.com/lgu-records/recordkeeper/internal/db"
	"github.com/lgu-records/recordkeeper/internal/events"
	"github.com/lgu-records/recordkeeper/internal/mq"
	"github.com/lgu-records/recordkeeper/internal/notify"
	"github.com/lgu-records/recordkeeper/internal/scheduler"
	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/internal/storage"
	"github.com/lgu-records/recordkeeper/internal/store"
)

// App holds everything a front end needs.
type App struct {
	Config   config.Config
	Logger   *logrus.Logger
	Records  *services.RecordService
	Users    *services.UserService
	Transfer *services.TransferService
	Backups  *services.BackupService
	Hub      *events.Hub

	queue     *mq.MQ
	scheduler *scheduler.Scheduler
	db        *sql.DB
	cancel    context.CancelFunc
}

// New opens persistence, loads both stores, seeds default accounts when
// none exist and wires the services. Nothing runs in the background until
// Start is called.
func New(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Hub: events.NewHub(logger)}

	recordPersister, userPersister, err := a.openPersistence(ctx)
	if err != nil {
		return nil, err
	}

	recordStore := store.NewRecordStore(recordPersister, cfg.IDPrefix)
	migrated, err := recordStore.Load(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if migrated > 0 {
		logger.WithField("records", migrated).Info("normalized stored dates")
	}

	userStore := store.NewUserStore(userPersister)
	if err := userStore.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open message queue: %w", err)
	}
	a.queue = queue

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open backup storage: %w", err)
	}

	publisher := events.NewPublisher(queue, cfg.MQ.Channel, logger)
	a.Records = services.NewRecordService(recordStore, publisher, logger)
	a.Users = services.NewUserService(userStore, logger)
	a.Transfer = services.NewTransferService(a.Records, logger)
	a.Backups = services.NewBackupService(a.Records, objects, notify.NewSender(cfg.SMTP, logger), cfg.Backup.NotifyEmail, logger)

	if _, err := a.Users.EnsureDefaults(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed default users: %w", err)
	}

	a.scheduler = scheduler.New(logger)
	if err := a.scheduler.Add("backup", cfg.Backup.Schedule, func(ctx context.Context) error {
		_, err := a.Backups.Create(ctx, services.SystemActor)
		return err
	}); err != nil {
		a.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"persistence": cfg.Persistence,
		"records":     recordStore.Count(),
		"users":       userStore.Count(),
		"storage":     cfg.Storage.Backend,
		"mq":          cfg.MQ.Backend,
	}).Info("record keeper ready")
	return a, nil
}

func (a *App) openPersistence(ctx context.Context) (store.RecordPersister, store.UserPersister, error) {
	switch strings.ToLower(strings.TrimSpace(a.Config.Persistence)) {
	case "", "json":
		return store.NewJSONRecordFile(a.Config.Data.RecordsFile), store.NewJSONUserFile(a.Config.Data.UsersFile), nil
	case "postgres":
		conn, err := db.Open(ctx, a.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		a.db = conn
		return store.NewPostgresRecordRepository(conn), store.NewPostgresUserRepository(conn), nil
	}
	return nil, nil, fmt.Errorf("unknown persistence %q", a.Config.Persistence)
}

// Start runs the event hub and the backup schedule until ctx is done or
// Close is called.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	go func() {
		if err := a.Hub.Run(ctx, a.queue, a.Config.MQ.Channel); err != nil {
			a.Logger.WithError(err).Error("event hub stopped")
		}
	}()
	if a.scheduler.Jobs() > 0 {
		a.scheduler.Start()
		a.Logger.WithField("schedule", a.Config.Backup.Schedule).Info("scheduled backups enabled")
	}
}

// Close stops background work and releases connections.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	var errs []error
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
