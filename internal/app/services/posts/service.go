package posts

import (
	"context"
	"errors"
	"log/slog"

	appoutbox "orbit/internal/app/outbox"
	"orbit/internal/domain/post"
	"orbit/internal/domain/user"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Service struct {
	Posts   post.Repository
	Users   user.Repository
	Outbox  appoutbox.Outbox
	Encoder appoutbox.EventEncoder
	Logger  *slog.Logger
}

type CreateParams struct {
	Author    user.ID
	Content   string
	ImageURLs []string
	Type      post.Type
}

// View is a post with the author's profile snippet attached.
type View struct {
	Post   *post.Post
	Author user.Snippet
}

// FeedPage is one page of the global timeline with pagination totals.
type FeedPage struct {
	Posts      []View
	Page       int
	TotalPages int64
	TotalPosts int64
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*View, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	created, err := post.New(post.CreateParams{
		UserID:    params.Author,
		Content:   params.Content,
		ImageURLs: params.ImageURLs,
		Type:      params.Type,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Posts.Insert(ctx, created); err != nil {
		return nil, err
	}
	if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, post.Created{
		PostID:   created.ID,
		AuthorID: created.UserID,
		Type:     created.Type,
		Hashtags: created.Hashtags,
		At:       created.CreatedAt,
	}); err != nil && s.Logger != nil {
		s.Logger.Error("outbox append failed", "event", "post.created", "post_id", created.ID, "error", err)
	}
	return s.withAuthor(ctx, created), nil
}

func (s *Service) Feed(ctx context.Context, page, pageSize int) (*FeedPage, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	items, total, err := s.Posts.Feed(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return &FeedPage{
		Posts:      s.withAuthors(ctx, items),
		Page:       page,
		TotalPages: totalPages,
		TotalPosts: total,
	}, nil
}

func (s *Service) ByUser(ctx context.Context, author user.ID) ([]View, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	items, err := s.Posts.ByUser(ctx, author)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, items), nil
}

type LikeResult struct {
	Liked      bool
	LikesCount int
}

func (s *Service) ToggleLike(ctx context.Context, id post.ID, viewer user.ID) (*LikeResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	target, err := s.Posts.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	liked := target.ToggleLike(viewer)
	if err := s.Posts.SetLikes(ctx, id, target.Likes); err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikesCount: len(target.Likes)}, nil
}

func (s *Service) Delete(ctx context.Context, id post.ID, requester user.ID) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	target, err := s.Posts.ByID(ctx, id)
	if err != nil {
		return err
	}
	if target.UserID != requester {
		return post.ErrNotOwner
	}
	if err := s.Posts.Delete(ctx, id); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("post deleted", "post_id", id, "user_id", requester)
	}
	return nil
}

func (s *Service) withAuthor(ctx context.Context, p *post.Post) *View {
	views := s.withAuthors(ctx, []*post.Post{p})
	return &views[0]
}

func (s *Service) withAuthors(ctx context.Context, items []*post.Post) []View {
	ids := make([]user.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.UserID)
	}
	snippets, err := s.Users.Snippets(ctx, ids)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("post author lookup failed", "error", err)
		}
		snippets = nil
	}
	views := make([]View, 0, len(items))
	for _, item := range items {
		author, ok := snippets[item.UserID]
		if !ok {
			author = user.Snippet{ID: item.UserID}
		}
		views = append(views, View{Post: item, Author: author})
	}
	return views
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Posts == nil:
		return errors.New("posts: post repository required")
	case s.Users == nil:
		return errors.New("posts: user repository required")
	default:
		return nil
	}
}
