package messages

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/realtime"
)

// Subscription delivers a conversation's full history in seq order, then every later
// message exactly once. Live events are only a hint: gaps and lost events are filled
// from the store.
type Subscription struct {
	conversationID string
	svc            *Service
	listener       realtime.Listener

	out      chan model.Message
	done     chan struct{}
	finished chan struct{}
	once     sync.Once

	mu  sync.Mutex
	err error
}

// Subscribe attaches to live events before reading history so nothing appended in
// between is missed. Stale conversations can still be followed.
func (s *Service) Subscribe(ctx context.Context, caller authsvc.Identity, conversationID string) (*Subscription, error) {
	conv, err := s.participant(ctx, caller, conversationID)
	if err != nil {
		return nil, err
	}
	if s.notifier == nil {
		return nil, fmt.Errorf("realtime notifier is nil")
	}

	listener, err := s.notifier.Subscribe(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("subscribe conversation: %w", err)
	}

	sub := &Subscription{
		conversationID: conv.ID,
		svc:            s,
		listener:       listener,
		out:            make(chan model.Message, s.cfg.Buffer),
		done:           make(chan struct{}),
		finished:       make(chan struct{}),
	}
	go sub.run(ctx)
	return sub, nil
}

func (s *Subscription) ConversationID() string {
	return s.conversationID
}

// Messages is closed once the subscription ends.
func (s *Subscription) Messages() <-chan model.Message {
	return s.out
}

// Cancel stops delivery and returns after the channel is closed and the notifier
// subscription released. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() { close(s.done) })
	<-s.finished
}

// Err reports why the subscription ended on its own. It is nil after Cancel.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Subscription) run(ctx context.Context) {
	log := s.svc.log.With(zap.String("conversation_id", s.conversationID))
	defer func() {
		if err := s.listener.Close(); err != nil {
			log.Warn("close realtime listener failed", zap.Error(err))
		}
		close(s.out)
		close(s.finished)
	}()

	var last int64
	ok, err := s.fill(ctx, &last)
	if err != nil {
		log.Warn("load conversation history failed", zap.Error(err))
		s.fail(err)
		return
	}
	if !ok {
		return
	}

	ticker := time.NewTicker(s.svc.cfg.ResyncInterval)
	defer ticker.Stop()

	live := s.listener.Messages()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.fail(ctx.Err())
			return
		case msg, open := <-live:
			if !open {
				log.Debug("realtime listener closed, falling back to polling")
				live = nil
				continue
			}
			switch {
			case msg.Seq <= last:
				continue
			case msg.Seq == last+1:
				if !s.emit(ctx, msg) {
					return
				}
				last = msg.Seq
			default:
				if ok, err = s.fill(ctx, &last); !ok {
					return
				}
				if err != nil {
					log.Warn("fill message gap failed", zap.Int64("after_seq", last), zap.Error(err))
				}
			}
		case <-ticker.C:
			if ok, err = s.fill(ctx, &last); !ok {
				return
			}
			if err != nil {
				log.Warn("resync conversation failed", zap.Int64("after_seq", last), zap.Error(err))
			}
		}
	}
}

// fill emits everything in the store after *last. ok is false when the subscription
// was cancelled while emitting.
func (s *Subscription) fill(ctx context.Context, last *int64) (bool, error) {
	batch := s.svc.cfg.HistoryBatch
	for {
		rows, err := s.svc.messages.ListMessagesAfter(ctx, s.conversationID, *last, batch)
		if err != nil {
			return true, err
		}
		for _, msg := range rows {
			if msg.Seq <= *last {
				continue
			}
			if !s.emit(ctx, msg) {
				return false, nil
			}
			*last = msg.Seq
		}
		if len(rows) < batch {
			return true, nil
		}
	}
}

func (s *Subscription) emit(ctx context.Context, msg model.Message) bool {
	select {
	case s.out <- msg:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		s.fail(ctx.Err())
		return false
	}
}
