package stories

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orbit/internal/domain/story"
	"orbit/internal/domain/user"
)

type Service struct {
	Stories story.Repository
	Users   user.Repository
	TTL     time.Duration
	Logger  *slog.Logger
}

type CreateParams struct {
	Author          user.ID
	Content         string
	MediaURL        string
	MediaType       story.MediaType
	BackgroundColor string
}

type View struct {
	Story  *story.Story
	Author user.Snippet
}

// Reel groups one author's active stories for the stories bar.
type Reel struct {
	Author  user.Snippet
	Stories []*story.Story
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*View, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	created, err := story.New(story.CreateParams{
		UserID:          params.Author,
		Content:         params.Content,
		MediaURL:        params.MediaURL,
		MediaType:       params.MediaType,
		BackgroundColor: params.BackgroundColor,
		TTL:             s.TTL,
		Now:             time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Stories.Insert(ctx, created); err != nil {
		return nil, err
	}
	author := s.snippetFor(ctx, created.UserID)
	return &View{Story: created, Author: author}, nil
}

// Feed returns the viewer's own active stories plus those of everyone they
// follow, grouped per author, authors ordered by their newest story.
func (s *Service) Feed(ctx context.Context, viewer user.ID) ([]Reel, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	account, err := s.Users.ByID(ctx, viewer)
	if err != nil {
		return nil, err
	}
	authors := append([]user.ID{viewer}, account.Following...)
	items, err := s.Stories.ActiveByUsers(ctx, authors, time.Now())
	if err != nil {
		return nil, err
	}
	return s.group(ctx, items), nil
}

func (s *Service) ByUser(ctx context.Context, author user.ID) ([]View, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	items, err := s.Stories.ActiveByUsers(ctx, []user.ID{author}, time.Now())
	if err != nil {
		return nil, err
	}
	snippet := s.snippetFor(ctx, author)
	views := make([]View, 0, len(items))
	for _, item := range items {
		views = append(views, View{Story: item, Author: snippet})
	}
	return views, nil
}

func (s *Service) Delete(ctx context.Context, id story.ID, requester user.ID) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	target, err := s.Stories.ByID(ctx, id)
	if err != nil {
		return err
	}
	if target.UserID != requester {
		return story.ErrNotOwner
	}
	return s.Stories.Delete(ctx, id)
}

// group keeps the incoming newest-first order: the first author seen had
// the newest story overall.
func (s *Service) group(ctx context.Context, items []*story.Story) []Reel {
	ids := make([]user.ID, 0, len(items))
	seen := make(map[user.ID]int)
	for _, item := range items {
		if _, ok := seen[item.UserID]; !ok {
			seen[item.UserID] = len(ids)
			ids = append(ids, item.UserID)
		}
	}
	snippets, err := s.Users.Snippets(ctx, ids)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("story author lookup failed", "error", err)
		}
		snippets = nil
	}
	reels := make([]Reel, len(ids))
	for i, id := range ids {
		author, ok := snippets[id]
		if !ok {
			author = user.Snippet{ID: id}
		}
		reels[i] = Reel{Author: author}
	}
	for _, item := range items {
		idx := seen[item.UserID]
		reels[idx].Stories = append(reels[idx].Stories, item)
	}
	return reels
}

func (s *Service) snippetFor(ctx context.Context, id user.ID) user.Snippet {
	snippets, err := s.Users.Snippets(ctx, []user.ID{id})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("story author lookup failed", "user_id", id, "error", err)
		}
		return user.Snippet{ID: id}
	}
	if snippet, ok := snippets[id]; ok {
		return snippet
	}
	return user.Snippet{ID: id}
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Stories == nil:
		return errors.New("stories: story repository required")
	case s.Users == nil:
		return errors.New("stories: user repository required")
	default:
		return nil
	}
}
