package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The monitor stream writes from two goroutines: the pub/sub forwarder and
// the read loop answering pings. Conn must serialize those writes so every
// frame reaches the client whole.
func TestConnConcurrentWriters(t *testing.T) {
	const perWriter = 50

	upgrader := websocket.Upgrader{}
	received := make(chan map[string]string, 2*perWriter)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer serverConn.Close()
		for i := 0; i < 2*perWriter; i++ {
			var frame map[string]string
			if err := serverConn.ReadJSON(&frame); err != nil {
				close(received)
				return
			}
			received <- frame
		}
		close(received)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	raw, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn := NewConn(raw)
	defer conn.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perWriter; i++ {
			assert.NoError(t, conn.WriteTyped(MonitorResponse{Event: EventMonitor, Payload: `{"type":"check_in"}`}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perWriter; i++ {
			assert.NoError(t, conn.WriteTyped(PongResponse{Event: EventPong}))
		}
	}()
	wg.Wait()

	monitors, pongs := 0, 0
	for frame := range received {
		switch Event(frame["event"]) {
		case EventMonitor:
			monitors++
			var payload map[string]string
			require.NoError(t, json.Unmarshal([]byte(frame["payload"]), &payload))
			assert.Equal(t, "check_in", payload["type"])
		case EventPong:
			pongs++
		default:
			t.Fatalf("unexpected frame: %v", frame)
		}
	}
	assert.Equal(t, perWriter, monitors)
	assert.Equal(t, perWriter, pongs)
}

func TestConnWriteError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan ErrorResponse, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer serverConn.Close()
		var resp ErrorResponse
		if err := serverConn.ReadJSON(&resp); err == nil {
			received <- resp
		}
		close(received)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	raw, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn := NewConn(raw)
	defer conn.Close()

	require.NoError(t, conn.WriteError("unknown action: subscribe"))

	resp, ok := <-received
	require.True(t, ok)
	assert.Equal(t, EventError, resp.Event)
	assert.Equal(t, "unknown action: subscribe", resp.Error)
}
