package sse

import (
	"context"

	"github.com/canal-org/canal/internal/broker"
)

// Publisher encodes events and control commands into transport envelopes and
// hands them to the broker. Transport errors propagate unretried.
type Publisher struct {
	broker broker.Broker
}

func NewPublisher(b broker.Broker) *Publisher {
	return &Publisher{broker: b}
}

// Publish sends event on channel (default "sse") and reports how many
// listeners received it.
func (p *Publisher) Publish(ctx context.Context, channel string, event *Event) (int64, error) {
	if channel == "" {
		channel = DefaultChannel
	}

	payload, err := event.Envelope()
	if err != nil {
		return 0, err
	}

	return p.broker.Publish(ctx, channel, string(payload))
}

// Control sends a command to the sessions on channel. It is never forwarded
// to clients as an event.
func (p *Publisher) Control(ctx context.Context, channel string, cmd ControlCommand) (int64, error) {
	if channel == "" {
		channel = DefaultChannel
	}

	payload, err := ControlEnvelope(cmd)
	if err != nil {
		return 0, err
	}

	return p.broker.Publish(ctx, channel, string(payload))
}
