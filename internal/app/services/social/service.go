package social

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	appoutbox "orbit/internal/app/outbox"
	"orbit/internal/domain/user"
)

const defaultSearchLimit = 20

// Service covers profiles and the follow/connection graph.
type Service struct {
	Users   user.Repository
	Outbox  appoutbox.Outbox
	Encoder appoutbox.EventEncoder
	Logger  *slog.Logger
}

// Profile is a user with the referenced edge lists resolved to snippets.
type Profile struct {
	User        *user.User
	Followers   []user.Snippet
	Following   []user.Snippet
	Connections []user.Snippet
}

func (s *Service) Profile(ctx context.Context, id user.ID) (*Profile, error) {
	if s.Users == nil {
		return nil, errRepoRequired
	}
	account, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	all := make([]user.ID, 0, len(account.Followers)+len(account.Following)+len(account.Connections))
	all = append(all, account.Followers...)
	all = append(all, account.Following...)
	all = append(all, account.Connections...)
	snippets, err := s.Users.Snippets(ctx, all)
	if err != nil {
		// Stale or missing references degrade to bare IDs, the profile
		// itself still loads.
		if s.Logger != nil {
			s.Logger.Warn("profile snippet lookup failed", "user_id", id, "error", err)
		}
		snippets = nil
	}
	return &Profile{
		User:        account,
		Followers:   resolve(snippets, account.Followers),
		Following:   resolve(snippets, account.Following),
		Connections: resolve(snippets, account.Connections),
	}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id user.ID, update user.ProfileUpdate) (*user.User, error) {
	if s.Users == nil {
		return nil, errRepoRequired
	}
	return s.Users.UpdateProfile(ctx, id, update)
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]user.Snippet, error) {
	if s.Users == nil {
		return nil, errRepoRequired
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []user.Snippet{}, nil
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}
	return s.Users.Search(ctx, query, limit)
}

func (s *Service) Follow(ctx context.Context, follower, target user.ID) error {
	if s.Users == nil {
		return errRepoRequired
	}
	if follower == target {
		return user.ErrSelfReference
	}
	current, err := s.Users.ByID(ctx, follower)
	if err != nil {
		return err
	}
	if current.IsFollowing(target) {
		return user.ErrAlreadyFollowing
	}
	if _, err := s.Users.ByID(ctx, target); err != nil {
		return err
	}
	if err := s.Users.Follow(ctx, follower, target); err != nil {
		return err
	}
	if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, user.Followed{
		FollowerID: follower,
		TargetID:   target,
		At:         time.Now().UTC(),
	}); err != nil && s.Logger != nil {
		s.Logger.Error("outbox append failed", "event", "user.followed", "error", err)
	}
	return nil
}

func (s *Service) Unfollow(ctx context.Context, follower, target user.ID) error {
	if s.Users == nil {
		return errRepoRequired
	}
	if follower == target {
		return user.ErrSelfReference
	}
	return s.Users.Unfollow(ctx, follower, target)
}

func (s *Service) Connect(ctx context.Context, requester, peer user.ID) error {
	if s.Users == nil {
		return errRepoRequired
	}
	if requester == peer {
		return user.ErrSelfReference
	}
	current, err := s.Users.ByID(ctx, requester)
	if err != nil {
		return err
	}
	if current.IsConnected(peer) {
		return user.ErrAlreadyConnected
	}
	if _, err := s.Users.ByID(ctx, peer); err != nil {
		return err
	}
	if err := s.Users.Connect(ctx, requester, peer); err != nil {
		return err
	}
	if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, user.Connected{
		UserID: requester,
		PeerID: peer,
		At:     time.Now().UTC(),
	}); err != nil && s.Logger != nil {
		s.Logger.Error("outbox append failed", "event", "user.connected", "error", err)
	}
	return nil
}

func (s *Service) Disconnect(ctx context.Context, requester, peer user.ID) error {
	if s.Users == nil {
		return errRepoRequired
	}
	if requester == peer {
		return user.ErrSelfReference
	}
	return s.Users.Disconnect(ctx, requester, peer)
}

type EdgeKind string

const (
	EdgeFollowers   EdgeKind = "followers"
	EdgeFollowing   EdgeKind = "following"
	EdgeConnections EdgeKind = "connections"
)

// Edges lists one of a user's reference lists as snippets.
func (s *Service) Edges(ctx context.Context, id user.ID, kind EdgeKind) ([]user.Snippet, error) {
	if s.Users == nil {
		return nil, errRepoRequired
	}
	account, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var ids []user.ID
	switch kind {
	case EdgeFollowers:
		ids = account.Followers
	case EdgeFollowing:
		ids = account.Following
	case EdgeConnections:
		ids = account.Connections
	default:
		return nil, errors.New("social: unknown edge kind")
	}
	snippets, err := s.Users.Snippets(ctx, ids)
	if err != nil {
		return nil, err
	}
	return resolve(snippets, ids), nil
}

func resolve(snippets map[user.ID]user.Snippet, ids []user.ID) []user.Snippet {
	out := make([]user.Snippet, 0, len(ids))
	for _, id := range ids {
		if snippet, ok := snippets[id]; ok {
			out = append(out, snippet)
			continue
		}
		out = append(out, user.Snippet{ID: id})
	}
	return out
}

var errRepoRequired = errors.New("social: user repository required")
