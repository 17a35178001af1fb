package sse

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// DefaultChannel is used whenever no channel is named explicitly.
const DefaultChannel = "sse"

// controlKey marks a transport envelope as a command for the session itself
// rather than data for the client.
const controlKey = "sse-control"

// ControlCommand steers a streaming session from the publish side.
type ControlCommand string

const (
	// ControlDisconnect terminates the session. Clients may reconnect.
	ControlDisconnect ControlCommand = "disconnect"

	// ControlHealthCheck makes the session emit a comment chunk, which
	// fails the write if the client is gone.
	ControlHealthCheck ControlCommand = "health-check"
)

// ErrInvalidEnvelope is returned for transport payloads matching neither the
// event nor the control envelope shape.
var ErrInvalidEnvelope = errors.New("sse: payload is not a valid envelope")

// Event is data published as a server-sent event. Data is required; the
// other fields are optional and omitted from both the envelope and the wire
// format when unset.
type Event struct {
	Data  any
	Type  string
	ID    string
	Retry int
}

type envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Type    string          `json:"type,omitempty"`
	ID      string          `json:"id,omitempty"`
	Retry   int             `json:"retry,omitempty"`
	Control ControlCommand  `json:"sse-control,omitempty"`
}

// Format renders the event as one SSE wire block, terminated by the blank
// line that delimits events. Non-string data is serialized to JSON first;
// multi-line data becomes one data: line per line.
func (e *Event) Format() (string, error) {
	data, ok := e.Data.(string)
	if !ok {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return "", err
		}
		data = string(b)
	}

	var lines []string
	if e.Type != "" {
		lines = append(lines, "event:"+e.Type)
	}
	for _, line := range splitLines(data) {
		lines = append(lines, "data:"+line)
	}
	if e.ID != "" {
		lines = append(lines, "id:"+e.ID)
	}
	if e.Retry > 0 {
		lines = append(lines, "retry:"+strconv.Itoa(e.Retry))
	}

	return strings.Join(lines, "\n") + "\n\n", nil
}

// Envelope serializes the event to the minimal JSON payload carried over the
// broker, with unset optional fields omitted entirely.
func (e *Event) Envelope() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{
		Data:  data,
		Type:  e.Type,
		ID:    e.ID,
		Retry: e.Retry,
	})
}

// ControlEnvelope serializes a control command to its transport payload.
func ControlEnvelope(cmd ControlCommand) ([]byte, error) {
	return json.Marshal(map[string]ControlCommand{controlKey: cmd})
}

// DecodeEnvelope parses a transport payload into either an Event or a
// control command. The two envelope shapes are mutually exclusive,
// distinguished by the control key; anything else is ErrInvalidEnvelope.
func DecodeEnvelope(payload []byte) (*Event, ControlCommand, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, "", errors.Join(ErrInvalidEnvelope, err)
	}

	if env.Control != "" {
		return nil, env.Control, nil
	}

	if len(env.Data) == 0 {
		return nil, "", ErrInvalidEnvelope
	}

	ev := &Event{Type: env.Type, ID: env.ID, Retry: env.Retry}
	if err := json.Unmarshal(env.Data, &ev.Data); err != nil {
		return nil, "", errors.Join(ErrInvalidEnvelope, err)
	}

	return ev, "", nil
}

// splitLines splits on \n without yielding an empty trailing line for data
// that ends in a newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.Split(s, "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	return lines
}
