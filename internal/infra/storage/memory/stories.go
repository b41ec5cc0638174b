package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	domainstory "orbit/internal/domain/story"
	domainuser "orbit/internal/domain/user"
)

// StoryRepository keeps stories in memory. Expired stories are filtered on
// read; nothing reaps them eagerly.
type StoryRepository struct {
	mu    sync.RWMutex
	items []*domainstory.Story
	seq   int64
}

func NewStoryRepository() *StoryRepository {
	return &StoryRepository{}
}

func (r *StoryRepository) Insert(ctx context.Context, story *domainstory.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	story.ID = domainstory.ID("mem-" + strconv.FormatInt(r.seq, 10))
	copied := *story
	r.items = append(r.items, &copied)
	return nil
}

func (r *StoryRepository) ByID(ctx context.Context, id domainstory.ID) (*domainstory.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ID == id {
			copied := *item
			return &copied, nil
		}
	}
	return nil, domainstory.ErrNotFound
}

func (r *StoryRepository) ActiveByUsers(ctx context.Context, authors []domainuser.ID, now time.Time) ([]*domainstory.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if now.IsZero() {
		now = time.Now()
	}
	allowed := make(map[domainuser.ID]struct{}, len(authors))
	for _, author := range authors {
		allowed[author] = struct{}{}
	}
	result := make([]*domainstory.Story, 0)
	for i := len(r.items) - 1; i >= 0; i-- {
		item := r.items[i]
		if _, ok := allowed[item.UserID]; !ok {
			continue
		}
		if item.Expired(now) {
			continue
		}
		copied := *item
		result = append(result, &copied)
	}
	return result, nil
}

func (r *StoryRepository) Delete(ctx context.Context, id domainstory.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:idx], r.items[idx+1:]...)
			return nil
		}
	}
	return domainstory.ErrNotFound
}

var _ domainstory.Repository = (*StoryRepository)(nil)
