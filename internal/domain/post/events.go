package post

import (
	"time"

	"orbit/internal/domain/user"
)

type Created struct {
	PostID   ID        `json:"post_id"`
	AuthorID user.ID   `json:"author_id"`
	Type     Type      `json:"type"`
	Hashtags []string  `json:"hashtags,omitempty"`
	At       time.Time `json:"at"`
}

func (e Created) EventName() string     { return "post.created" }
func (e Created) AggregateID() string   { return string(e.PostID) }
func (e Created) OccurredAt() time.Time { return e.At }
