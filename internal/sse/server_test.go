package sse_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/canal-org/canal/internal/broker"
	"github.com/canal-org/canal/internal/sse"
)

func serveStream(t *testing.T, server *sse.Server, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	server.HandleFunc()(w, req, nil)

	return w
}

func TestServerHandleFunc(t *testing.T) {
	t.Run("terminated channel gets 204 and no subscription", func(t *testing.T) {
		b := newFakeBroker()
		server := sse.NewServer(b, sse.ServerOptions{KeyPrefix: "stream:"}, zerolog.Nop())

		w := serveStream(t, server, "/sse")
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Empty(t, w.Body.String())
		require.Zero(t, b.listenCalls())
	})

	t.Run("streams formatted events", func(t *testing.T) {
		b := newFakeBroker()
		b.listener.push(&broker.Notification{Kind: broker.KindSubscribe, Channel: "sse"})
		b.listener.pushMessage("sse", `{"data":"thing","type":"example"}`)
		b.listener.pushMessage("sse", `{"sse-control":"disconnect"}`)

		server := sse.NewServer(b, sse.ServerOptions{}, zerolog.Nop())

		w := serveStream(t, server, "/sse")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
		require.Equal(t, "event:example\ndata:thing\n\n", w.Body.String())
		require.Equal(t, 1, b.listenCalls())
		require.Equal(t, []string{"sse"}, b.listener.unsubscribeCalls())
	})

	t.Run("channel query parameter selects the channel", func(t *testing.T) {
		b := newFakeBroker()
		b.listener.pushMessage("garden", `{"data":"rose"}`)
		b.listener.pushMessage("garden", `{"sse-control":"disconnect"}`)

		server := sse.NewServer(b, sse.ServerOptions{}, zerolog.Nop())

		w := serveStream(t, server, "/sse?channel=garden")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "data:rose\n\n", w.Body.String())
		require.Equal(t, []string{"garden"}, b.listener.subscribeCalls())
	})

	t.Run("live channel streams despite configured prefix", func(t *testing.T) {
		b := newFakeBroker()
		b.setKey("stream:sse")
		b.listener.pushMessage("sse", `{"sse-control":"disconnect"}`)

		server := sse.NewServer(b, sse.ServerOptions{KeyPrefix: "stream:"}, zerolog.Nop())

		w := serveStream(t, server, "/sse")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("last event id header is ignored", func(t *testing.T) {
		b := newFakeBroker()
		b.listener.pushMessage("sse", `{"sse-control":"disconnect"}`)

		server := sse.NewServer(b, sse.ServerOptions{}, zerolog.Nop())

		req := httptest.NewRequest(http.MethodGet, "/sse", nil)
		req.Header.Set("Last-Event-ID", "42")
		w := httptest.NewRecorder()
		server.HandleFunc()(w, req, nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Body.String())
	})
}
