package sse_test

import (
	"context"
	"sync"
	"time"

	"github.com/canal-org/canal/internal/broker"
)

type fakeListener struct {
	mu           sync.Mutex
	queue        chan *broker.Notification
	subscribed   []string
	unsubscribed []string
	unsubErr     error
}

func newFakeListener() *fakeListener {
	return &fakeListener{queue: make(chan *broker.Notification, 16)}
}

func (f *fakeListener) push(n *broker.Notification) {
	f.queue <- n
}

func (f *fakeListener) pushMessage(channel, payload string) {
	f.push(&broker.Notification{Kind: broker.KindMessage, Channel: channel, Payload: payload})
}

func (f *fakeListener) Subscribe(_ context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, channel)
	return nil
}

func (f *fakeListener) Unsubscribe(_ context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, channel)
	return f.unsubErr
}

func (f *fakeListener) PullNext(ctx context.Context, timeout time.Duration) (*broker.Notification, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case n := <-f.queue:
		return n, nil
	case <-expired:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeListener) Close() error { return nil }

func (f *fakeListener) unsubscribeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.unsubscribed...)
}

func (f *fakeListener) subscribeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subscribed...)
}

type published struct {
	channel string
	payload string
}

type fakeBroker struct {
	mu        sync.Mutex
	listener  *fakeListener
	listens   int
	keys      map[string]bool
	published []published
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{listener: newFakeListener(), keys: make(map[string]bool)}
}

func (f *fakeBroker) Publish(_ context.Context, channel, payload string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{channel: channel, payload: payload})
	return 1, nil
}

func (f *fakeBroker) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key], nil
}

func (f *fakeBroker) Listen() broker.Listener {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listens++
	return f.listener
}

func (f *fakeBroker) Close() error { return nil }

func (f *fakeBroker) setKey(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = true
}

func (f *fakeBroker) listenCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listens
}

func (f *fakeBroker) publishedMessages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

// seqStore answers Exists calls from a fixed sequence, repeating the last
// answer once exhausted.
type seqStore struct {
	mu      sync.Mutex
	answers []bool
	calls   int
}

func (s *seqStore) Exists(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}

	return s.answers[i], nil
}
