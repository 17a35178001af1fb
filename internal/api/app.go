package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/canal-org/canal/internal/broker"
	"github.com/canal-org/canal/internal/core"
	"github.com/canal-org/canal/internal/sse"
)

// App wires the broker, publisher and stream endpoint together. It is built
// explicitly at startup; there is no package-level default instance.
type App struct {
	config    *core.Config
	broker    broker.Broker
	server    *sse.Server
	publisher *sse.Publisher
	logger    zerolog.Logger
}

func New(config *core.Config, logger zerolog.Logger) (*App, error) {
	b, err := broker.New(config.RedisURL)
	if err != nil {
		return nil, err
	}

	server := sse.NewServer(b, sse.ServerOptions{
		KeyPrefix:   config.ChannelKeyPrefix,
		HealthCheck: config.HealthCheck,
		PollTimeout: time.Duration(config.PollTimeout) * time.Second,
	}, logger)

	return &App{
		config:    config,
		broker:    b,
		server:    server,
		publisher: sse.NewPublisher(b),
		logger:    logger,
	}, nil
}

func (app *App) Listen() error {
	app.logger.Info().Str("addr", app.config.Addr).Msg("listening")

	return http.ListenAndServe(app.config.Addr, app.Handler())
}

func (app *App) Close() error {
	return app.broker.Close()
}

// Handler exposes the wired router without binding a listener, for callers
// embedding the app in their own server.
func (app *App) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/sse", app.server.HandleFunc())
	router.POST("/pub", app.publish())
	router.POST("/control", app.control())

	return router
}

type PublishInput struct {
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data"`
	Type    string `json:"type,omitempty"`
	ID      string `json:"id,omitempty"`
	Retry   int    `json:"retry,omitempty"`
}

func (app *App) publish() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		decoder := json.NewDecoder(r.Body)
		var input PublishInput
		if err := decoder.Decode(&input); err != nil || input.Data == nil {
			http.Error(w, "Bad request.", http.StatusBadRequest)
			return
		}

		_, err := app.publisher.Publish(r.Context(), input.Channel, &sse.Event{
			Data:  input.Data,
			Type:  input.Type,
			ID:    input.ID,
			Retry: input.Retry,
		})

		w.Header().Add("Content-Type", "application/json")

		if err != nil {
			app.logger.Error().Err(err).Msg("publish failed")
			http.Error(w, "{\"success\": false}", http.StatusInternalServerError)
			return
		}

		if _, err := w.Write([]byte("{\"success\": true}")); err != nil {
			app.logger.Error().Err(err).Msg("write response")
			return
		}
	}
}

type ControlInput struct {
	Channel string `json:"channel,omitempty"`
	Command string `json:"command"`
}

func (app *App) control() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		decoder := json.NewDecoder(r.Body)
		var input ControlInput
		if err := decoder.Decode(&input); err != nil || input.Command == "" {
			http.Error(w, "Bad request.", http.StatusBadRequest)
			return
		}

		_, err := app.publisher.Control(r.Context(), input.Channel, sse.ControlCommand(input.Command))

		w.Header().Add("Content-Type", "application/json")

		if err != nil {
			app.logger.Error().Err(err).Msg("control failed")
			http.Error(w, "{\"success\": false}", http.StatusInternalServerError)
			return
		}

		if _, err := w.Write([]byte("{\"success\": true}")); err != nil {
			app.logger.Error().Err(err).Msg("write response")
			return
		}
	}
}
