package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const memoryBuffer = 64

// ErrClosed is returned by a broker that has been closed.
var ErrClosed = errors.New("mq: broker closed")

// MemoryBroker fans messages out to in-process subscribers. A subscriber
// that falls behind by more than its buffer misses messages.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string]map[chan Message]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan Message]struct{}{}}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", ErrClosed
	}

	msg := Message{ID: uuid.NewString(), Data: data, Attributes: attrs}
	for ch := range b.subs[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return msg.ID, nil
}

// Subscribe blocks, handing every message to handler, until ctx is done
// or the broker is closed. Handler errors are ignored; there is no redelivery.
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}

	ch := make(chan Message, memoryBuffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.subs[channel] == nil {
		b.subs[channel] = map[chan Message]struct{}{}
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs[channel], ch)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return ErrClosed
			}
			_ = handler(ctx, msg)
		}
	}
}

// Close wakes every subscriber with ErrClosed.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for ch := range subs {
			close(ch)
		}
	}
	b.subs = map[string]map[chan Message]struct{}{}
	return nil
}

// Subscribers reports how many subscribers listen on channel.
func (b *MemoryBroker) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}
