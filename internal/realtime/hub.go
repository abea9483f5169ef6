// Package realtime pushes live updates to connected clients over websockets.
// Updates fan out between instances through a redis pub/sub channel fed by
// the events outbox.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Frame types on the wire.
const (
	FrameInitial   = "initial"
	FrameUpdate    = "update"
	FrameError     = "error"
	FrameKeepalive = "keepalive"
)

// Frame is one websocket message.
type Frame struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// SnapshotSource builds the records visible to one audience: the session
// requests and meal plans a dietitian id or client email may see.
type SnapshotSource interface {
	Snapshot(ctx context.Context, audience string) (any, error)
}

const updatesChannel = "nourish.updates"

type changeNotice struct {
	Audience string `json:"audience"`
}

type subscriber struct {
	audience string
	send     chan Frame
}

// Hub routes update notices to the websocket subscribers of each audience.
type Hub struct {
	rdb       *redis.Client
	source    SnapshotSource
	logger    *logging.Logger
	keepalive time.Duration

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub(rdb *redis.Client, source SnapshotSource, keepalive time.Duration, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	if keepalive <= 0 {
		keepalive = 25 * time.Second
	}
	return &Hub{
		rdb:       rdb,
		source:    source,
		logger:    logger,
		keepalive: keepalive,
		subs:      make(map[string]map[*subscriber]struct{}),
	}
}

// Run consumes the redis channel until ctx is done. Safe to restart.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, updatesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var notice changeNotice
			if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
				h.logger.Warn("malformed update notice", "error", err)
				continue
			}
			h.push(ctx, notice.Audience)
		}
	}
}

// push rebuilds the audience's snapshot and queues an update frame on every
// local subscriber. Slow subscribers are skipped, not blocked on.
func (h *Hub) push(ctx context.Context, audience string) {
	targets := h.subscribersFor(audience)
	if len(targets) == 0 {
		return
	}

	frame := Frame{Type: FrameUpdate}
	data, err := h.source.Snapshot(ctx, audience)
	if err != nil {
		h.logger.Error("snapshot failed", "error", err, "audience", audience)
		frame = Frame{Type: FrameError, Error: "failed to load updates"}
	} else {
		frame.Data = data
	}

	for _, s := range targets {
		select {
		case s.send <- frame:
		default:
			h.logger.Warn("dropping update for slow subscriber", "audience", audience)
		}
	}
}

func (h *Hub) subscribersFor(audience string) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[audience]
	if len(set) == 0 {
		return nil
	}
	out := make([]*subscriber, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.audience]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[s.audience] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.audience]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.audience)
	}
}
