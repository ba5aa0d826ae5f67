package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

var ErrHubClosed = errors.New("realtime hub is closed")

// Hub is the in-process Notifier. Each listener owns a bounded channel; a publish to a
// full channel is dropped for that listener only.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*hubListener]struct{}
	buffer  int
	closed  bool
	dropped atomic.Int64
	log     *zap.Logger
}

type hubListener struct {
	hub   *Hub
	topic string
	ch    chan model.Message
	once  sync.Once
}

func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		topics: make(map[string]map[*hubListener]struct{}),
		buffer: buffer,
		log:    log,
	}
}

func (h *Hub) Publish(_ context.Context, msg model.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	for l := range h.topics[Topic(msg.ConversationID)] {
		select {
		case l.ch <- msg:
		default:
			h.dropped.Add(1)
			h.log.Debug("realtime listener buffer full, event dropped",
				zap.String("conversation_id", msg.ConversationID),
				zap.Int64("seq", msg.Seq),
			)
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, conversationID string) (Listener, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	topic := Topic(conversationID)
	l := &hubListener{
		hub:   h,
		topic: topic,
		ch:    make(chan model.Message, h.buffer),
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*hubListener]struct{})
	}
	h.topics[topic][l] = struct{}{}
	return l, nil
}

// Subscribers reports live listeners on a conversation.
func (h *Hub) Subscribers(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[Topic(conversationID)])
}

// Dropped reports events discarded because a listener buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close detaches every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for topic, listeners := range h.topics {
		for l := range listeners {
			l.once.Do(func() { close(l.ch) })
		}
		delete(h.topics, topic)
	}
}

func (l *hubListener) Messages() <-chan model.Message {
	return l.ch
}

func (l *hubListener) Close() error {
	l.hub.mu.Lock()
	defer l.hub.mu.Unlock()

	if listeners, ok := l.hub.topics[l.topic]; ok {
		delete(listeners, l)
		if len(listeners) == 0 {
			delete(l.hub.topics, l.topic)
		}
	}
	l.once.Do(func() { close(l.ch) })
	return nil
}
