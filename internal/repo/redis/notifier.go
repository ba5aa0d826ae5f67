package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/realtime"
)

// Notifier publishes appended messages over redis pub/sub so listeners on every API
// node see them. Pub/sub is fire-and-forget; listeners repair gaps from the store.
type Notifier struct {
	client *goredis.Client
	buffer int
	log    *zap.Logger
}

func NewNotifier(client *goredis.Client, buffer int, log *zap.Logger) *Notifier {
	if buffer <= 0 {
		buffer = realtime.DefaultBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{client: client, buffer: buffer, log: log}
}

func (n *Notifier) Publish(ctx context.Context, msg model.Message) error {
	if n.client == nil {
		return errNilClient
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode realtime message: %w", err)
	}
	if err := n.client.Publish(ctx, realtime.Topic(msg.ConversationID), payload).Err(); err != nil {
		return wrapErr("publish realtime message", err)
	}
	return nil
}

// Subscribe returns once redis has confirmed the subscription, so anything published
// afterwards reaches the listener.
func (n *Notifier) Subscribe(ctx context.Context, conversationID string) (realtime.Listener, error) {
	if n.client == nil {
		return nil, errNilClient
	}

	pubsub := n.client.Subscribe(ctx, realtime.Topic(conversationID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, wrapErr("subscribe realtime topic", err)
	}

	l := &pubsubListener{
		pubsub: pubsub,
		out:    make(chan model.Message, n.buffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		log:    n.log.With(zap.String("conversation_id", conversationID)),
	}
	go l.run()
	return l, nil
}

type pubsubListener struct {
	pubsub *goredis.PubSub
	out    chan model.Message
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
	log    *zap.Logger
}

func (l *pubsubListener) run() {
	defer close(l.exited)
	defer close(l.out)

	in := l.pubsub.Channel()
	for {
		select {
		case <-l.done:
			return
		case raw, ok := <-in:
			if !ok {
				return
			}
			var msg model.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				l.log.Warn("drop malformed realtime payload", zap.Error(err))
				continue
			}
			select {
			case l.out <- msg:
			default:
				l.log.Debug("realtime listener buffer full, event dropped", zap.Int64("seq", msg.Seq))
			}
		}
	}
}

func (l *pubsubListener) Messages() <-chan model.Message {
	return l.out
}

func (l *pubsubListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.pubsub.Close()
		<-l.exited
	})
	return err
}
