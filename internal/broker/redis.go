package broker

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoURL is returned when no redis connection URL is configured.
var ErrNoURL = errors.New("broker: no redis connection URL configured")

type redisBroker struct {
	client *redis.Client
}

// New connects a Broker to the redis server at url. An empty url is a
// configuration error.
func New(url string) (Broker, error) {
	if url == "" {
		return nil, ErrNoURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &redisBroker{client: redis.NewClient(opts)}, nil
}

func (b *redisBroker) Publish(ctx context.Context, channel, payload string) (int64, error) {
	return b.client.Publish(ctx, channel, payload).Result()
}

func (b *redisBroker) Exists(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (b *redisBroker) Listen() Listener {
	// Subscribe with no channels: the session subscribes explicitly
	// before it produces any output.
	return &redisListener{ps: b.client.Subscribe(context.Background())}
}

func (b *redisBroker) Close() error {
	return b.client.Close()
}

type redisListener struct {
	ps *redis.PubSub
}

func (l *redisListener) Subscribe(ctx context.Context, channel string) error {
	return l.ps.Subscribe(ctx, channel)
}

func (l *redisListener) Unsubscribe(ctx context.Context, channel string) error {
	return l.ps.Unsubscribe(ctx, channel)
}

type pullResult struct {
	raw any
	err error
}

func (l *redisListener) PullNext(ctx context.Context, timeout time.Duration) (*Notification, error) {
	// The receive runs in its own goroutine so a canceled ctx unblocks the
	// caller right away; closing the listener releases the receive itself.
	res := make(chan pullResult, 1)
	go func() {
		var r pullResult
		if timeout > 0 {
			r.raw, r.err = l.ps.ReceiveTimeout(ctx, timeout)
		} else {
			r.raw, r.err = l.ps.Receive(ctx)
		}
		res <- r
	}()

	var r pullResult
	select {
	case r = <-res:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if r.err != nil {
		var ne net.Error
		if errors.As(r.err, &ne) && ne.Timeout() {
			return nil, nil
		}

		return nil, r.err
	}

	switch m := r.raw.(type) {
	case *redis.Message:
		return &Notification{Kind: KindMessage, Channel: m.Channel, Payload: m.Payload}, nil
	case *redis.Subscription:
		return &Notification{Kind: m.Kind, Channel: m.Channel}, nil
	case *redis.Pong:
		return &Notification{Kind: "pong"}, nil
	default:
		return &Notification{}, nil
	}
}

func (l *redisListener) Close() error {
	return l.ps.Close()
}

// IsClosedErr reports whether err means the transport connection is already
// gone, in which case cleanup failures are not worth surfacing.
func IsClosedErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, redis.ErrClosed) || errors.Is(err, net.ErrClosed) {
		return true
	}

	return strings.Contains(err.Error(), "use of closed network connection")
}
