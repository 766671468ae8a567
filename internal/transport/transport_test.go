package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func echoServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(messageType, message); err != nil {
				return
			}
		}
	}))
}

func wsUrl(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func next(t *testing.T, c *Conn) Event {
	select {
	case event := <-c.Events():
		return event
	case <-time.After(5 * time.Second):
		t.FailNow()
		return Event{}
	}
}

func TestSendReceiveClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := echoServer(t)
	defer server.Close()

	c := ConnectWithDefaults(ctx, "test", wsUrl(server))
	assert.Equal(t, next(t, c).Kind, EventOpen)

	assert.Equal(t, c.Send("hello"), nil)
	event := next(t, c)
	assert.Equal(t, event.Kind, EventMessage)
	assert.Equal(t, event.Data, "hello")

	assert.Equal(t, c.Close(), nil)
	event = next(t, c)
	assert.Equal(t, event.Kind, EventClosed)
	assert.Equal(t, event.Err, nil)
	assert.Equal(t, c.Send("late"), ErrClosed)

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.FailNow()
	}
}

func TestServerGoesAway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte("bye"))
		// drop the connection without a close handshake
		conn.UnderlyingConn().Close()
	}))
	defer server.Close()

	c := ConnectWithDefaults(ctx, "test", wsUrl(server))
	assert.Equal(t, next(t, c).Kind, EventOpen)
	event := next(t, c)
	assert.Equal(t, event.Kind, EventMessage)
	assert.Equal(t, event.Data, "bye")
	event = next(t, c)
	assert.Equal(t, event.Kind, EventClosed)
	assert.NotEqual(t, event.Err, nil)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := echoServer(t)
	url := wsUrl(server)
	server.Close()

	settings := DefaultSettings()
	settings.DialRetries = 0
	c := Connect(ctx, "test", url, settings)
	assert.Equal(t, c.Send("x"), ErrNotOpen)
	event := next(t, c)
	assert.Equal(t, event.Kind, EventClosed)
	assert.NotEqual(t, event.Err, nil)
}
