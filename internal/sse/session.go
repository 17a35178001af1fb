package sse

import (
	"context"
	"fmt"
	"time"

	"github.com/canal-org/canal/internal/broker"
)

// defaultPollTimeout bounds the blocking pull whenever the session has a
// reason to wake up periodically (health-checks or termination polling).
const defaultPollTimeout = 15 * time.Second

// SessionOptions configure one streaming session. Zero values disable the
// optional behavior: an empty HealthCheck text disables health-check chunks,
// a zero PollTimeout falls back to the default interval when polling is
// needed at all.
type SessionOptions struct {
	Channel     string
	HealthCheck string
	PollTimeout time.Duration
}

// Session relays broker messages on one channel as SSE wire chunks. Each
// session exclusively owns its Listener for its whole lifetime.
type Session struct {
	channel     string
	listener    broker.Listener
	oracle      *Oracle
	healthCheck string
	pollTimeout time.Duration
}

func NewSession(listener broker.Listener, oracle *Oracle, opts SessionOptions) *Session {
	channel := opts.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	return &Session{
		channel:     channel,
		listener:    listener,
		oracle:      oracle,
		healthCheck: opts.HealthCheck,
		pollTimeout: opts.PollTimeout,
	}
}

// Stream subscribes to the session's channel and feeds wire chunks to emit
// until the channel is done, a disconnect command arrives, emit fails or ctx
// is canceled. The subscription is released on every exit path; release
// errors for an already-gone connection are swallowed.
func (s *Session) Stream(ctx context.Context, emit func(chunk string) error) (err error) {
	done, err := s.oracle.Done(ctx, s.channel)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if err := s.listener.Subscribe(ctx, s.channel); err != nil {
		return fmt.Errorf("subscribe %q: %w", s.channel, err)
	}

	defer func() {
		// ctx may already be canceled when the client went away.
		uerr := s.listener.Unsubscribe(context.Background(), s.channel)
		if uerr != nil && !broker.IsClosedErr(uerr) && err == nil {
			err = fmt.Errorf("unsubscribe %q: %w", s.channel, uerr)
		}
	}()

	for {
		done, err := s.oracle.Done(ctx, s.channel)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		n, err := s.listener.PullNext(ctx, s.waitTimeout())
		if err != nil {
			return err
		}

		if n == nil {
			// Timed out. The wake-up re-checks the oracle; it only
			// produces output when health-checks are on.
			if s.healthCheck != "" {
				if err := emit(s.healthChunk()); err != nil {
					return err
				}
			}
			continue
		}

		if n.Kind != broker.KindMessage {
			continue
		}

		ev, cmd, err := DecodeEnvelope([]byte(n.Payload))
		if err != nil {
			return err
		}

		if ev != nil {
			chunk, err := ev.Format()
			if err != nil {
				return err
			}
			if err := emit(chunk); err != nil {
				return err
			}
			continue
		}

		switch cmd {
		case ControlDisconnect:
			return nil
		case ControlHealthCheck:
			if s.healthCheck != "" {
				if err := emit(s.healthChunk()); err != nil {
					return err
				}
			}
		default:
			// Unrecognized commands are dropped; the stream goes on.
		}
	}
}

// waitTimeout picks how long one pull may block. Blocking forever is only
// valid when nothing else could make the loop act.
func (s *Session) waitTimeout() time.Duration {
	if s.pollTimeout > 0 {
		return s.pollTimeout
	}

	if s.healthCheck != "" || s.oracle.Enabled() {
		return defaultPollTimeout
	}

	return 0
}

// healthChunk is an SSE comment line, ignored by the client's event handler.
func (s *Session) healthChunk() string {
	return ":" + s.healthCheck + "\n"
}
