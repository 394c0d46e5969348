package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parceldesk/pkg/logger"
)

func dialTestHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent retries the broadcast until the hub has finished registering the
// connection, then returns the first event that arrives.
func readEvent(t *testing.T, hub *Hub, conn *websocket.Conn, event string, data any) envelope {
	t.Helper()

	for attempt := 0; attempt < 20; attempt++ {
		hub.Broadcast(event, data)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	}
	t.Fatal("no broadcast received")
	return envelope{}
}

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := NewHub(logger.New("fatal", "text"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialTestHub(t, srv)

	env := readEvent(t, hub, conn, "package_logged", map[string]string{"id": "pkg-1"})
	assert.Equal(t, "package_logged", env.Type)

	payload, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pkg-1", payload["id"])
}

func TestHubSurvivesDisconnectedClient(t *testing.T) {
	hub := NewHub(logger.New("fatal", "text"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	gone := dialTestHub(t, srv)
	readEvent(t, hub, gone, "warmup", nil)
	gone.Close()

	// A live client still receives events after another drops.
	alive := dialTestHub(t, srv)
	env := readEvent(t, hub, alive, "package_deleted", map[string]string{"id": "pkg-2"})
	assert.Equal(t, "package_deleted", env.Type)
}
