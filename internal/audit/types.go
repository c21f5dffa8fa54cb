package audit

import (
	"context"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TurnRecord is one inbound or outbound chat turn. Content is stored after
// PII redaction.
type TurnRecord struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	SessionID   string    `json:"session_id,omitempty"`
	Role        string    `json:"role"`
	Stage       string    `json:"stage,omitempty"`
	Content     string    `json:"content"`
	PIIRedacted bool      `json:"pii_redacted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store keeps the write-only audit trail: chat turns and the senders that
// ever issued start. Nothing in routing reads it back.
type Store interface {
	RecordStart(ctx context.Context, sender string, at time.Time) error
	SaveTurn(ctx context.Context, record TurnRecord) error
	RecentTurns(ctx context.Context, sender string, limit int) ([]TurnRecord, error)
	AllowedUsers(ctx context.Context) ([]string, error)
	Close() error
}
