package story

import (
	"context"
	"errors"
	"strings"
	"time"

	"orbit/internal/domain/user"
)

var (
	ErrAuthorRequired   = errors.New("story: author is required")
	ErrEmptyStory       = errors.New("story: content or media url is required")
	ErrInvalidMediaType = errors.New("story: invalid media type")
	ErrNotFound         = errors.New("story: not found")
	ErrNotOwner         = errors.New("story: not the author")
)

const DefaultTTL = 24 * time.Hour

const defaultBackground = "#4f46e5"

type ID string

type MediaType string

const (
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Story struct {
	ID              ID
	UserID          user.ID
	Content         string
	MediaURL        string
	MediaType       MediaType
	BackgroundColor string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

func (s *Story) Expired(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return !s.ExpiresAt.After(at.UTC())
}

type CreateParams struct {
	UserID          user.ID
	Content         string
	MediaURL        string
	MediaType       MediaType
	BackgroundColor string
	TTL             time.Duration
	Now             time.Time
}

func New(params CreateParams) (*Story, error) {
	author := user.ID(strings.TrimSpace(string(params.UserID)))
	if author == "" {
		return nil, ErrAuthorRequired
	}
	content := strings.TrimSpace(params.Content)
	mediaURL := strings.TrimSpace(params.MediaURL)
	if content == "" && mediaURL == "" {
		return nil, ErrEmptyStory
	}
	mediaType, err := normalizeMediaType(params.MediaType)
	if err != nil {
		return nil, err
	}
	background := strings.TrimSpace(params.BackgroundColor)
	if background == "" {
		background = defaultBackground
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Story{
		UserID:          author,
		Content:         content,
		MediaURL:        mediaURL,
		MediaType:       mediaType,
		BackgroundColor: background,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	}, nil
}

func normalizeMediaType(t MediaType) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(string(t)))) {
	case "":
		return MediaText, nil
	case MediaText:
		return MediaText, nil
	case MediaImage:
		return MediaImage, nil
	case MediaVideo:
		return MediaVideo, nil
	default:
		return "", ErrInvalidMediaType
	}
}

// Repository persists stories. Expiry is enforced twice: reads filter on
// ExpiresAt and the Mongo implementation additionally keeps a TTL index so
// expired documents are eventually reaped.
type Repository interface {
	Insert(ctx context.Context, story *Story) error
	ByID(ctx context.Context, id ID) (*Story, error)

	// ActiveByUsers returns unexpired stories authored by any of the given
	// users, newest-first.
	ActiveByUsers(ctx context.Context, authors []user.ID, now time.Time) ([]*Story, error)

	Delete(ctx context.Context, id ID) error
}
