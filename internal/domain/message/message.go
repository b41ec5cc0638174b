package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"orbit/internal/domain/user"
)

var (
	ErrSenderRequired    = errors.New("message: sender is required")
	ErrRecipientRequired = errors.New("message: recipient is required")
	ErrSelfAddressed     = errors.New("message: sender and recipient must differ")
	ErrEmptyMessage      = errors.New("message: body or attachment url is required")
	ErrInvalidKind       = errors.New("message: invalid kind")
	ErrNotFound          = errors.New("message: not found")
)

type ID string

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Message is a single directed message between two users. The record is
// append-only: once stored, only the Seen flag may change, and only from
// false to true.
type Message struct {
	ID            ID
	SenderID      user.ID
	RecipientID   user.ID
	Body          string
	AttachmentURL string
	Kind          Kind
	Seen          bool
	CreatedAt     time.Time
}

// Summary is the derived per-counterpart rollup for one viewer: the
// counterpart's profile snippet, the latest message either way, and the
// number of messages from the counterpart the viewer has not seen yet.
// It is recomputed from the stored messages on every read, never persisted.
type Summary struct {
	Counterpart user.Snippet
	LastMessage Message
	UnreadCount int64
}

type CreateParams struct {
	SenderID      user.ID
	RecipientID   user.ID
	Body          string
	AttachmentURL string
	Kind          Kind
}

// New validates and assembles an unsaved message. The creation timestamp
// is assigned by the repository at insert time, not here: the store is the
// single source of time so that per-pair ordering follows insertion order.
func New(params CreateParams) (*Message, error) {
	sender := user.ID(strings.TrimSpace(string(params.SenderID)))
	if sender == "" {
		return nil, ErrSenderRequired
	}
	recipient := user.ID(strings.TrimSpace(string(params.RecipientID)))
	if recipient == "" {
		return nil, ErrRecipientRequired
	}
	if sender == recipient {
		return nil, ErrSelfAddressed
	}
	body := strings.TrimSpace(params.Body)
	attachment := strings.TrimSpace(params.AttachmentURL)
	if body == "" && attachment == "" {
		return nil, ErrEmptyMessage
	}
	kind, err := normalizeKind(params.Kind)
	if err != nil {
		return nil, err
	}
	return &Message{
		SenderID:      sender,
		RecipientID:   recipient,
		Body:          body,
		AttachmentURL: attachment,
		Kind:          kind,
		Seen:          false,
	}, nil
}

func normalizeKind(kind Kind) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case "":
		return KindText, nil
	case KindText:
		return KindText, nil
	case KindImage:
		return KindImage, nil
	case KindVideo:
		return KindVideo, nil
	default:
		return "", ErrInvalidKind
	}
}

// Repository persists messages and answers the three read shapes the
// messaging service needs. Implementations assign ID and CreatedAt during
// Insert and guarantee that CreatedAt is non-decreasing with insertion
// order for any (sender, recipient) pair.
type Repository interface {
	Insert(ctx context.Context, msg *Message) error

	// Thread returns the messages exchanged between a and b. Page 1 holds
	// the newest pageSize messages; every page is ordered newest-first.
	Thread(ctx context.Context, a, b user.ID, page, pageSize int) ([]*Message, error)

	// MarkSeen flips seen=false to seen=true on every message from
	// counterpart to viewer and reports how many documents matched.
	// Calling it again immediately matches zero and is not an error.
	MarkSeen(ctx context.Context, viewer, counterpart user.ID) (int64, error)

	// Summaries computes the conversation rollup for the viewer, one entry
	// per distinct counterpart, ordered by the latest message descending.
	// The counterpart snippet is left zero-valued when the user record no
	// longer exists; callers must tolerate that.
	Summaries(ctx context.Context, viewer user.ID) ([]Summary, error)
}
