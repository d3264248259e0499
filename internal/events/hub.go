package events

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lgu-records/recordkeeper/internal/mq"
)

const clientBuffer = 16

// Hub consumes the event channel once and broadcasts each payload to
// every registered client. Slow clients drop events rather than block.
type Hub struct {
	mu        sync.Mutex
	clients   map[chan []byte]struct{}
	logger    *logrus.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: map[chan []byte]struct{}{},
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Close tells every stream to finish. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Done is closed once Close has been called.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds a client. Call the returned func to remove it.
func (h *Hub) Register() (<-chan []byte, func()) {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
		})
	}
}

// Clients reports how many clients are registered.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast hands payload to every client that has room for it.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			h.logger.Debug("dropping event for slow client")
		}
	}
}

// Run subscribes to channel and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context, queue *mq.MQ, channel string) error {
	err := queue.Subscribe(ctx, channel, func(_ context.Context, msg mq.Message) error {
		h.Broadcast(msg.Data)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
