package user

import "time"

type Followed struct {
	FollowerID ID        `json:"follower_id"`
	TargetID   ID        `json:"target_id"`
	At         time.Time `json:"at"`
}

func (e Followed) EventName() string     { return "user.followed" }
func (e Followed) AggregateID() string   { return string(e.FollowerID) }
func (e Followed) OccurredAt() time.Time { return e.At }

type Connected struct {
	UserID ID        `json:"user_id"`
	PeerID ID        `json:"peer_id"`
	At     time.Time `json:"at"`
}

func (e Connected) EventName() string     { return "user.connected" }
func (e Connected) AggregateID() string   { return string(e.UserID) }
func (e Connected) OccurredAt() time.Time { return e.At }
