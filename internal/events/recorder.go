package events

import (
	"context"

	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// ChangePayload is the outbox body for a requests.changed entry.
type ChangePayload struct {
	Audience string `json:"audience"`
}

// Recorder turns state machine change notifications into outbox entries,
// one per affected audience. Requests are visible to both parties, so a
// decision fans out to the dietitian and the client.
type Recorder struct {
	store  *OutboxStore
	logger *logging.Logger
}

func NewRecorder(store *OutboxStore, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// RequestsChanged records one entry per audience. Failures are logged, not
// returned: the transition already committed and must not unwind.
func (r *Recorder) RequestsChanged(ctx context.Context, dietitianID, clientEmail string) {
	for _, audience := range []string{dietitianID, clientEmail} {
		if audience == "" {
			continue
		}
		if _, err := r.store.Insert(ctx, audience, TypeRequestsChanged, ChangePayload{Audience: audience}); err != nil {
			r.logger.Error("failed to record live update", "error", err, "audience", audience)
		}
	}
}
