package supervisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/salgozino/btcusdt/internal/stream"
)

// terminalFrameServer sends the terminal error envelope on the first
// connection and keeps every later one open, so a recovery can land.
func terminalFrameServer(t *testing.T, conns *atomic.Int32) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()

		if conns.Add(1) == 1 {
			frame := `{"e":"error","m":"Max reconnect retries reached"}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestSupervisor_WireTerminalFrameRecovers(t *testing.T) {
	var conns atomic.Int32
	server := terminalFrameServer(t, &conns)
	defer server.Close()

	streamCfg := stream.DefaultSubscriberConfig()
	streamCfg.WSURL = "ws" + strings.TrimPrefix(server.URL, "http")
	streamCfg.MaxReconnects = 2
	streamCfg.Backoff = stream.Backoff{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond, Factor: 2.0}

	sub := stream.NewSubscriber(streamCfg, nil)
	store := newFakeStore()

	cfg := testConfig()
	cfg.Cooldown = 20 * time.Millisecond
	// Keep the liveness poller out of the short recovery window so the
	// resubscription under test is the one the error path performs.
	cfg.PollInterval = 250 * time.Millisecond
	sup := New(cfg, "BTCUSDT", sub, store, nil)

	if err := sup.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The terminal frame arriving over the wire must lead to a fresh
	// subscription on a new connection.
	waitFor(t, 3*time.Second, func() bool {
		return conns.Load() >= 2 && sub.IsAlive()
	})

	// And the supervisor must still shut down cleanly afterwards.
	done := make(chan struct{})
	go func() {
		sup.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop never returned after a wire-delivered terminal frame")
	}
}
