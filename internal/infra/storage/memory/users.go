package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainuser "orbit/internal/domain/user"
)

// UserRepository stores accounts and their follow/connection edges in
// process memory. Uniqueness checks mirror the database indexes.
type UserRepository struct {
	mu    sync.RWMutex
	items map[domainuser.ID]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[domainuser.ID]*domainuser.User)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return cloneUser(item), nil
}

func (r *UserRepository) ByExternalID(ctx context.Context, externalID string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ExternalID != "" && item.ExternalID == externalID {
			return cloneUser(item), nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, item := range r.items {
		if item.Email == needle {
			return cloneUser(item), nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == user.ID {
			continue
		}
		if item.Username == user.Username {
			return domainuser.ErrUsernameTaken
		}
		if item.Email == user.Email {
			return domainuser.ErrEmailAlreadyUsed
		}
	}
	r.items[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id domainuser.ID, update domainuser.ProfileUpdate) (*domainuser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	item.ApplyProfile(update, time.Now())
	return cloneUser(item), nil
}

func (r *UserRepository) Follow(ctx context.Context, follower, target domainuser.ID) error {
	return r.link(follower, target, func(src, dst *domainuser.User) {
		src.Following = addID(src.Following, dst.ID)
		dst.Followers = addID(dst.Followers, src.ID)
	})
}

func (r *UserRepository) Unfollow(ctx context.Context, follower, target domainuser.ID) error {
	return r.link(follower, target, func(src, dst *domainuser.User) {
		src.Following = removeID(src.Following, dst.ID)
		dst.Followers = removeID(dst.Followers, src.ID)
	})
}

func (r *UserRepository) Connect(ctx context.Context, a, b domainuser.ID) error {
	return r.link(a, b, func(src, dst *domainuser.User) {
		src.Connections = addID(src.Connections, dst.ID)
		dst.Connections = addID(dst.Connections, src.ID)
	})
}

func (r *UserRepository) Disconnect(ctx context.Context, a, b domainuser.ID) error {
	return r.link(a, b, func(src, dst *domainuser.User) {
		src.Connections = removeID(src.Connections, dst.ID)
		dst.Connections = removeID(dst.Connections, src.ID)
	})
}

func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]domainuser.Snippet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(query))
	matches := make([]domainuser.Snippet, 0)
	for _, item := range r.items {
		if strings.Contains(strings.ToLower(item.Username), needle) ||
			strings.Contains(strings.ToLower(item.FullName), needle) {
			matches = append(matches, item.Snippet())
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Username < matches[j].Username
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *UserRepository) Snippets(ctx context.Context, ids []domainuser.ID) (map[domainuser.ID]domainuser.Snippet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snippets := make(map[domainuser.ID]domainuser.Snippet, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			snippets[id] = item.Snippet()
		}
	}
	return snippets, nil
}

func (r *UserRepository) link(a, b domainuser.ID, apply func(src, dst *domainuser.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.items[a]
	if !ok {
		return domainuser.ErrNotFound
	}
	dst, ok := r.items[b]
	if !ok {
		return domainuser.ErrNotFound
	}
	apply(src, dst)
	now := time.Now().UTC()
	src.UpdatedAt = now
	dst.UpdatedAt = now
	return nil
}

func cloneUser(user *domainuser.User) *domainuser.User {
	copied := *user
	copied.Followers = append([]domainuser.ID(nil), user.Followers...)
	copied.Following = append([]domainuser.ID(nil), user.Following...)
	copied.Connections = append([]domainuser.ID(nil), user.Connections...)
	return &copied
}

func addID(ids []domainuser.ID, id domainuser.ID) []domainuser.ID {
	for _, current := range ids {
		if current == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []domainuser.ID, id domainuser.ID) []domainuser.ID {
	kept := ids[:0]
	for _, current := range ids {
		if current != id {
			kept = append(kept, current)
		}
	}
	return kept
}

var _ domainuser.Repository = (*UserRepository)(nil)
