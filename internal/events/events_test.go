package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/internal/logging"
	"github.com/lgu-records/recordkeeper/internal/mq"
	"github.com/lgu-records/recordkeeper/types"
)

func TestPublisherToHub(t *testing.T) {
	broker := mq.NewMemoryBroker()
	queue := mq.New(broker)
	defer queue.Close()
	logger := logging.Discard()

	hub := NewHub(logger)
	client, unregister := hub.Register()
	defer unregister()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, queue, "record-events") }()
	require.Eventually(t, func() bool { return broker.Subscribers("record-events") == 1 }, time.Second, 5*time.Millisecond)

	pub := NewPublisher(queue, "record-events", logger)
	pub.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	pub.Publish(context.Background(), RecordAdded, types.Record{ID: "MAYOR'S OFFICE - 001"})

	select {
	case payload := <-client:
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		assert.Equal(t, RecordAdded, ev.Type)
		assert.Equal(t, 2025, ev.Timestamp.Year())
		var rec types.Record
		require.NoError(t, json.Unmarshal(ev.Data, &rec))
		assert.Equal(t, "MAYOR'S OFFICE - 001", rec.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())
	_, unregister := hub.Register()
	assert.Equal(t, 1, hub.Clients())
	unregister()
	unregister()
	assert.Equal(t, 0, hub.Clients())
}

func TestPublisher_ClosedQueueDoesNotPanic(t *testing.T) {
	queue := mq.New(mq.NewMemoryBroker())
	require.NoError(t, queue.Close())
	NewPublisher(queue, "record-events", logging.Discard()).Publish(context.Background(), RecordDeleted, map[string]string{"id": "x"})

	var nilPub *Publisher
	nilPub.Publish(context.Background(), RecordDeleted, nil)
}
