// Package realtime fans appended messages out to live subscribers. Delivery is best
// effort: a slow listener loses events instead of blocking publishers, and consumers
// repair gaps from the message store.
package realtime

import (
	"context"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

const DefaultBuffer = 64

type Notifier interface {
	Publish(ctx context.Context, msg model.Message) error
	Subscribe(ctx context.Context, conversationID string) (Listener, error)
}

// Listener receives messages published to one conversation after Subscribe returned.
// Close releases the subscription and closes the channel.
type Listener interface {
	Messages() <-chan model.Message
	Close() error
}

func Topic(conversationID string) string {
	return "conversation:" + conversationID
}
