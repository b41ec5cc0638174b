package message

import (
	"time"

	"orbit/internal/domain/user"
)

type MessageSent struct {
	MessageID   ID        `json:"message_id"`
	SenderID    user.ID   `json:"sender_id"`
	RecipientID user.ID   `json:"recipient_id"`
	Kind        Kind      `json:"kind"`
	At          time.Time `json:"at"`
}

func (e MessageSent) EventName() string     { return "message.sent" }
func (e MessageSent) AggregateID() string   { return string(e.MessageID) }
func (e MessageSent) OccurredAt() time.Time { return e.At }

type ThreadSeen struct {
	ViewerID      user.ID   `json:"viewer_id"`
	CounterpartID user.ID   `json:"counterpart_id"`
	Marked        int64     `json:"marked"`
	At            time.Time `json:"at"`
}

func (e ThreadSeen) EventName() string     { return "message.thread_seen" }
func (e ThreadSeen) AggregateID() string   { return string(e.ViewerID) }
func (e ThreadSeen) OccurredAt() time.Time { return e.At }
