package sse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/canal-org/canal/internal/broker"
)

// ServerOptions configure the stream endpoint. KeyPrefix enables the
// termination check, HealthCheck enables comment keepalives, PollTimeout
// overrides the default polling interval.
type ServerOptions struct {
	KeyPrefix   string
	HealthCheck string
	PollTimeout time.Duration
}

// Server exposes streaming sessions over HTTP.
type Server struct {
	broker broker.Broker
	oracle *Oracle
	opts   ServerOptions
	logger zerolog.Logger
}

func NewServer(b broker.Broker, opts ServerOptions, logger zerolog.Logger) *Server {
	return &Server{
		broker: b,
		oracle: NewOracle(opts.KeyPrefix, b),
		opts:   opts,
		logger: logger,
	}
}

// HandleFunc streams server-sent events. The channel comes from the
// "channel" query parameter, default "sse". Any Last-Event-ID header is
// ignored; there is no replay. When the channel is already done the client
// gets 204 so conforming EventSource implementations stop reconnecting.
func (s *Server) HandleFunc() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		channel := r.URL.Query().Get("channel")
		if channel == "" {
			channel = DefaultChannel
		}

		done, err := s.oracle.Done(r.Context(), channel)
		if err != nil {
			s.logger.Error().Err(err).Str("channel", channel).Msg("termination check failed")
			http.Error(w, "Internal server error.", http.StatusInternalServerError)
			return
		}

		if done {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported.", http.StatusInternalServerError)
			return
		}

		id, err := gonanoid.New()
		if err != nil {
			http.Error(w, "Internal server error.", http.StatusInternalServerError)
			return
		}

		logger := s.logger.With().Str("session", id).Str("channel", channel).Logger()
		logger.Info().Str("remote", r.RemoteAddr).Msg("client connected")

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		listener := s.broker.Listen()
		defer listener.Close()

		session := NewSession(listener, s.oracle, SessionOptions{
			Channel:     channel,
			HealthCheck: s.opts.HealthCheck,
			PollTimeout: s.opts.PollTimeout,
		})

		err = session.Stream(r.Context(), func(chunk string) error {
			if _, err := io.WriteString(w, chunk); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("stream ended")
			return
		}

		logger.Info().Msg("client disconnected")
	}
}
