package realtime

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nourishhq/dietitian-platform/internal/events"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

type stubSource struct {
	fail  atomic.Bool
	calls atomic.Int64
}

func (s *stubSource) Snapshot(ctx context.Context, audience string) (any, error) {
	if s.fail.Load() {
		return nil, errors.New("boom")
	}
	n := s.calls.Add(1)
	return map[string]any{"audience": audience, "version": n}, nil
}

func newTestHub(t *testing.T, source SnapshotSource, keepalive time.Duration) (*Hub, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewHub(rdb, source, keepalive, logging.NewWithWriter("error", io.Discard)), rdb
}

func dialAs(t *testing.T, hub *Hub, actor identity.Actor) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r.WithContext(identity.WithActor(r.Context(), actor)))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestInitialSnapshotIsFirstFrame(t *testing.T) {
	source := &stubSource{}
	hub, _ := newTestHub(t, source, time.Minute)

	conn := dialAs(t, hub, identity.Actor{ID: "diet-1", Role: identity.RoleDietitian})
	frame := readFrame(t, conn)
	assert.Equal(t, FrameInitial, frame.Type)
	require.NotNil(t, frame.Data)
	data := frame.Data.(map[string]any)
	assert.Equal(t, "diet-1", data["audience"])
}

func TestClientAudienceIsEmail(t *testing.T) {
	source := &stubSource{}
	hub, _ := newTestHub(t, source, time.Minute)

	conn := dialAs(t, hub, identity.Actor{ID: "user-9", Email: "client@example.com", Role: identity.RoleClient})
	frame := readFrame(t, conn)
	require.Equal(t, FrameInitial, frame.Type)
	data := frame.Data.(map[string]any)
	assert.Equal(t, "client@example.com", data["audience"])
}

func TestOutboxEntryReachesSubscriberAsUpdate(t *testing.T) {
	source := &stubSource{}
	hub, rdb := newTestHub(t, source, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialAs(t, hub, identity.Actor{ID: "diet-1", Role: identity.RoleDietitian})
	require.Equal(t, FrameInitial, readFrame(t, conn).Type)

	bridge := NewRedisBridge(rdb)
	entry := events.OutboxEntry{Payload: []byte(`{"audience":"diet-1"}`)}

	// The hub's subscription may still be registering; republish until the
	// update lands.
	deadline := time.After(3 * time.Second)
	updates := make(chan Frame, 1)
	go func() {
		for {
			var frame Frame
			conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Type == FrameUpdate {
				updates <- frame
				return
			}
		}
	}()
	for {
		require.NoError(t, bridge.Handle(ctx, entry))
		select {
		case frame := <-updates:
			data := frame.Data.(map[string]any)
			assert.Equal(t, "diet-1", data["audience"])
			return
		case <-deadline:
			t.Fatal("no update frame received")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestSnapshotFailureYieldsErrorFrame(t *testing.T) {
	source := &stubSource{}
	source.fail.Store(true)
	hub, _ := newTestHub(t, source, time.Minute)

	conn := dialAs(t, hub, identity.Actor{ID: "diet-1", Role: identity.RoleDietitian})
	frame := readFrame(t, conn)
	assert.Equal(t, FrameError, frame.Type)
	assert.NotEmpty(t, frame.Error)
}

func TestKeepaliveFramesFlowWhenIdle(t *testing.T) {
	source := &stubSource{}
	hub, _ := newTestHub(t, source, 50*time.Millisecond)

	conn := dialAs(t, hub, identity.Actor{ID: "diet-1", Role: identity.RoleDietitian})
	require.Equal(t, FrameInitial, readFrame(t, conn).Type)

	frame := readFrame(t, conn)
	assert.Equal(t, FrameKeepalive, frame.Type)
}
