package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/identity"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origin checks happen at the edge; tokens gate this endpoint.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and streams frames to the caller: an
// initial snapshot, then updates as the visible records change, with
// keepalives in between.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	audience := actor.ID
	if actor.Role == identity.RoleClient {
		audience = actor.Email
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "audience", audience)
		return
	}

	sub := &subscriber{audience: audience, send: make(chan Frame, sendBufferSize)}
	h.add(sub)
	h.logger.Info("subscriber connected", "audience", audience)

	// The initial snapshot is queued before the write pump starts so it is
	// always the first frame on the wire.
	if data, err := h.source.Snapshot(r.Context(), audience); err != nil {
		h.logger.Error("initial snapshot failed", "error", err, "audience", audience)
		sub.send <- Frame{Type: FrameError, Error: "failed to load updates"}
	} else {
		sub.send <- Frame{Type: FrameInitial, Data: data}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go h.writePump(ctx, conn, sub)

	// Read loop only detects close; inbound messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	h.remove(sub)
	conn.Close()
	h.logger.Info("subscriber disconnected", "audience", audience)
}

func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Frame{Type: FrameKeepalive}); err != nil {
				return
			}
		}
	}
}
