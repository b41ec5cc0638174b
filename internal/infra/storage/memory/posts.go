package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	domainpost "orbit/internal/domain/post"
	domainuser "orbit/internal/domain/user"
)

// PostRepository keeps the timeline in memory, newest-first.
type PostRepository struct {
	mu    sync.RWMutex
	items []*domainpost.Post
	seq   int64
}

func NewPostRepository() *PostRepository {
	return &PostRepository{}
}

func (r *PostRepository) Insert(ctx context.Context, post *domainpost.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	post.ID = domainpost.ID("mem-" + strconv.FormatInt(r.seq, 10))
	post.CreatedAt = time.Now().UTC()
	r.items = append(r.items, clonePost(post))
	return nil
}

func (r *PostRepository) ByID(ctx context.Context, id domainpost.ID) (*domainpost.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ID == id {
			return clonePost(item), nil
		}
	}
	return nil, domainpost.ErrNotFound
}

func (r *PostRepository) Feed(ctx context.Context, page, pageSize int) ([]*domainpost.Post, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := int64(len(r.items))
	start := (page - 1) * pageSize
	if start > len(r.items) {
		start = len(r.items)
	}
	end := start + pageSize
	if end > len(r.items) {
		end = len(r.items)
	}

	result := make([]*domainpost.Post, 0, end-start)
	// Items are appended in insertion order; walk from the tail.
	for i := len(r.items) - 1 - start; i >= len(r.items)-end; i-- {
		result = append(result, clonePost(r.items[i]))
	}
	return result, total, nil
}

func (r *PostRepository) ByUser(ctx context.Context, author domainuser.ID) ([]*domainpost.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domainpost.Post, 0)
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID == author {
			result = append(result, clonePost(r.items[i]))
		}
	}
	return result, nil
}

func (r *PostRepository) SetLikes(ctx context.Context, id domainpost.ID, likes []domainuser.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id {
			item.Likes = append([]domainuser.ID(nil), likes...)
			return nil
		}
	}
	return domainpost.ErrNotFound
}

func (r *PostRepository) Delete(ctx context.Context, id domainpost.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:idx], r.items[idx+1:]...)
			return nil
		}
	}
	return domainpost.ErrNotFound
}

func clonePost(post *domainpost.Post) *domainpost.Post {
	copied := *post
	copied.ImageURLs = append([]string(nil), post.ImageURLs...)
	copied.Likes = append([]domainuser.ID(nil), post.Likes...)
	copied.Hashtags = append([]string(nil), post.Hashtags...)
	return &copied
}

var _ domainpost.Repository = (*PostRepository)(nil)
