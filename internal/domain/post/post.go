package post

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"orbit/internal/domain/user"
)

var (
	ErrAuthorRequired  = errors.New("post: author is required")
	ErrContentRequired = errors.New("post: content is required")
	ErrInvalidType     = errors.New("post: invalid type")
	ErrNotFound        = errors.New("post: not found")
	ErrNotOwner        = errors.New("post: not the author")
)

type ID string

type Type string

const (
	TypeText          Type = "text"
	TypeImage         Type = "image"
	TypeTextWithImage Type = "text_with_image"
	TypeVideo         Type = "video"
)

type Post struct {
	ID        ID
	UserID    user.ID
	Content   string
	ImageURLs []string
	Type      Type
	Likes     []user.ID
	Hashtags  []string
	CreatedAt time.Time
}

func (p *Post) LikedBy(id user.ID) bool {
	for _, current := range p.Likes {
		if current == id {
			return true
		}
	}
	return false
}

// ToggleLike adds the user to the like set, or removes them if already
// present, and reports whether the post is liked after the call.
func (p *Post) ToggleLike(id user.ID) bool {
	if p.LikedBy(id) {
		kept := p.Likes[:0]
		for _, current := range p.Likes {
			if current != id {
				kept = append(kept, current)
			}
		}
		p.Likes = kept
		return false
	}
	p.Likes = append(p.Likes, id)
	return true
}

type CreateParams struct {
	UserID    user.ID
	Content   string
	ImageURLs []string
	Type      Type
}

func New(params CreateParams) (*Post, error) {
	author := user.ID(strings.TrimSpace(string(params.UserID)))
	if author == "" {
		return nil, ErrAuthorRequired
	}
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return nil, ErrContentRequired
	}
	postType, err := normalizeType(params.Type)
	if err != nil {
		return nil, err
	}
	images := make([]string, 0, len(params.ImageURLs))
	for _, raw := range params.ImageURLs {
		if url := strings.TrimSpace(raw); url != "" {
			images = append(images, url)
		}
	}
	return &Post{
		UserID:    author,
		Content:   content,
		ImageURLs: images,
		Type:      postType,
		Hashtags:  ExtractHashtags(content),
	}, nil
}

var hashtagPattern = regexp.MustCompile(`#\w+`)

// ExtractHashtags pulls lowercase tags out of the content, without the
// leading hash.
func ExtractHashtags(content string) []string {
	matches := hashtagPattern.FindAllString(content, -1)
	tags := make([]string, 0, len(matches))
	for _, match := range matches {
		tags = append(tags, strings.ToLower(match[1:]))
	}
	return tags
}

func normalizeType(t Type) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(string(t)))) {
	case "":
		return TypeText, nil
	case TypeText:
		return TypeText, nil
	case TypeImage:
		return TypeImage, nil
	case TypeTextWithImage:
		return TypeTextWithImage, nil
	case TypeVideo:
		return TypeVideo, nil
	default:
		return "", ErrInvalidType
	}
}

type Repository interface {
	Insert(ctx context.Context, post *Post) error
	ByID(ctx context.Context, id ID) (*Post, error)

	// Feed returns the global timeline newest-first plus the total count
	// for pagination metadata.
	Feed(ctx context.Context, page, pageSize int) ([]*Post, int64, error)
	ByUser(ctx context.Context, author user.ID) ([]*Post, error)

	SetLikes(ctx context.Context, id ID, likes []user.ID) error
	Delete(ctx context.Context, id ID) error
}
