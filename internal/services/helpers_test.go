package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lgu-records/recordkeeper/internal/events"
	"github.com/lgu-records/recordkeeper/internal/logging"
	"github.com/lgu-records/recordkeeper/internal/mq"
	"github.com/lgu-records/recordkeeper/internal/storage"
	"github.com/lgu-records/recordkeeper/internal/store"
	"github.com/lgu-records/recordkeeper/types"
)

var (
	admin = types.User{Username: "admin", Role: types.RoleAdmin}
	clerk = types.User{Username: "user", Role: types.RoleUser}
)

type fixture struct {
	records  *RecordService
	users    *UserService
	transfer *TransferService
	backups  *BackupService
	store    *store.RecordStore
	objects  *storage.Storage
	broker   *mq.MemoryBroker
	queue    *mq.MQ
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	logger := logging.Discard()

	recordStore := store.NewRecordStore(store.NewJSONRecordFile(filepath.Join(dir, "records.json")), "")
	_, err := recordStore.Load(ctx)
	require.NoError(t, err)

	userStore := store.NewUserStore(store.NewJSONUserFile(filepath.Join(dir, "users.json")))
	require.NoError(t, userStore.Load(ctx))

	objects, err := storage.Open(ctx, configForDir(filepath.Join(dir, "backups")))
	require.NoError(t, err)

	broker := mq.NewMemoryBroker()
	queue := mq.New(broker)
	t.Cleanup(func() { _ = queue.Close() })
	publisher := events.NewPublisher(queue, "record-events", logger)

	records := NewRecordService(recordStore, publisher, logger)
	users := NewUserService(userStore, logger)
	users.cost = bcrypt.MinCost

	return &fixture{
		records:  records,
		users:    users,
		transfer: NewTransferService(records, logger),
		backups:  NewBackupService(records, objects, nil, "", logger),
		store:    recordStore,
		objects:  objects,
		broker:   broker,
		queue:    queue,
		dir:      dir,
	}
}

func (f *fixture) add(t *testing.T, sender, subject, destination, date string) types.Record {
	t.Helper()
	r, err := f.records.Add(context.Background(), clerk, types.RecordInput{
		Sender: sender, Subject: subject, Destination: destination, Date: date,
	})
	require.NoError(t, err)
	return r
}

// capture collects every event published from now until the test ends.
func (f *fixture) capture(t *testing.T) <-chan events.Event {
	t.Helper()
	out := make(chan events.Event, 64)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = f.queue.Subscribe(ctx, "record-events", func(_ context.Context, msg mq.Message) error {
			var ev events.Event
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return err
			}
			out <- ev
			return nil
		})
	}()
	require.Eventually(t, func() bool { return f.broker.Subscribers("record-events") == 1 }, time.Second, 5*time.Millisecond)
	return out
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
	return events.Event{}
}
