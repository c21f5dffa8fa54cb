package audit

import (
	"context"
	"log"
	"time"

	"github.com/antoniostano/tripgenie/internal/policy"
)

// Recorder writes redacted turns to a Store. Write failures are logged and
// never reach the caller. A nil *Recorder records nothing.
type Recorder struct {
	store   Store
	timeout time.Duration
}

func NewRecorder(store Store) *Recorder {
	if store == nil {
		return nil
	}
	return &Recorder{store: store, timeout: 2 * time.Second}
}

func (r *Recorder) Store() Store {
	if r == nil {
		return nil
	}
	return r.store
}

func (r *Recorder) Start(ctx context.Context, sender string, at time.Time) {
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.store.RecordStart(ctx, sender, at); err != nil {
		log.Printf("audit: record start for sender=%s failed: %v", sender, err)
	}
}

func (r *Recorder) Turn(ctx context.Context, sender, sessionID, stage, role, content string) {
	if r == nil {
		return
	}
	redacted, changed := policy.RedactPII(content)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	err := r.store.SaveTurn(ctx, TurnRecord{
		Sender:      sender,
		SessionID:   sessionID,
		Role:        role,
		Stage:       stage,
		Content:     redacted,
		PIIRedacted: changed,
	})
	if err != nil {
		log.Printf("audit: save %s turn for sender=%s failed: %v", role, sender, err)
	}
}
