package broker

import (
	"context"
	"time"
)

// Notification kinds, mirroring redis pub/sub message types.
const (
	KindMessage     = "message"
	KindSubscribe   = "subscribe"
	KindUnsubscribe = "unsubscribe"
)

// Notification is one item delivered on a subscribed connection. Payload is
// only set for KindMessage.
type Notification struct {
	Kind    string
	Channel string
	Payload string
}

// Listener is a single subscription handle. It is owned by exactly one
// consumer for its lifetime and must be closed when the consumer is done.
type Listener interface {
	Subscribe(ctx context.Context, channel string) error
	Unsubscribe(ctx context.Context, channel string) error

	// PullNext blocks until the next notification arrives, the timeout
	// expires or ctx is canceled. A timeout of zero or less blocks
	// indefinitely. Expiry returns (nil, nil).
	PullNext(ctx context.Context, timeout time.Duration) (*Notification, error)

	Close() error
}

// Broker is the pub/sub transport plus the key-existence check backing the
// termination oracle. Both live on the same external store.
type Broker interface {
	// Publish delivers payload to current subscribers of channel and
	// reports how many received it.
	Publish(ctx context.Context, channel, payload string) (int64, error)

	Exists(ctx context.Context, key string) (bool, error)

	// Listen opens a fresh subscription handle. Each streaming session
	// gets its own.
	Listen() Listener

	Close() error
}
