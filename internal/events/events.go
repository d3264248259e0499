// Package events announces record changes on the message queue and fans
// them out to live web clients.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lgu-records/recordkeeper/internal/mq"
)

// Type names a kind of record change.
type Type string

const (
	RecordAdded   Type = "record_added"
	RecordUpdated Type = "record_updated"
	RecordDeleted Type = "record_deleted"
	BulkUpdate    Type = "bulk_update"
)

// Event is the JSON payload published for every change.
type Event struct {
	Type      Type            `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher sends events to one MQ channel. Failures are logged and
// never returned; a change is not undone because nobody heard about it.
type Publisher struct {
	mq      *mq.MQ
	channel string
	logger  *logrus.Logger
	now     func() time.Time
}

func NewPublisher(queue *mq.MQ, channel string, logger *logrus.Logger) *Publisher {
	return &Publisher{mq: queue, channel: channel, logger: logger, now: time.Now}
}

// Publish marshals data into an event of type t and sends it.
func (p *Publisher) Publish(ctx context.Context, t Type, data any) {
	if p == nil || p.mq == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		p.logger.WithError(err).WithField("event", t).Error("encode event data")
		return
	}
	payload, err := json.Marshal(Event{Type: t, Data: raw, Timestamp: p.now().UTC()})
	if err != nil {
		p.logger.WithError(err).WithField("event", t).Error("encode event")
		return
	}

	id, err := p.mq.Publish(ctx, p.channel, payload, map[string]string{"event_type": string(t)})
	if err != nil {
		p.logger.WithError(err).WithField("event", t).Warn("publish event")
		return
	}
	p.logger.WithFields(logrus.Fields{"event": t, "message_id": id}).Debug("event published")
}
