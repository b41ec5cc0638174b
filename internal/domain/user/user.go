package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired       = errors.New("user: id is required")
	ErrEmailRequired    = errors.New("user: email is required")
	ErrUsernameRequired = errors.New("user: username is required")
	ErrFullNameRequired = errors.New("user: full name is required")
	ErrEmailAlreadyUsed = errors.New("user: email already used")
	ErrUsernameTaken    = errors.New("user: username already taken")
	ErrSelfReference    = errors.New("user: cannot target yourself")
	ErrAlreadyFollowing = errors.New("user: already following")
	ErrAlreadyConnected = errors.New("user: already connected")
	ErrNotFound         = errors.New("user: not found")
)

type ID string

// User is the internal account mapped 1:1 to an identity-provider subject.
// ExternalID is the provider's opaque stable ID; it is empty for accounts
// created through the local credential path.
type User struct {
	ID             ID
	ExternalID     string
	Email          string
	Username       string
	FullName       string
	Bio            string
	ProfilePicture string
	CoverPhoto     string
	Location       string
	PasswordHash   string
	Followers      []ID
	Following      []ID
	Connections    []ID
	Verified       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snippet is the denormalized slice of a profile embedded in messages,
// conversation summaries, posts and stories.
type Snippet struct {
	ID             ID     `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	ProfilePicture string `json:"profile_picture"`
	Verified       bool   `json:"is_verified"`
}

func (u *User) Snippet() Snippet {
	if u == nil {
		return Snippet{}
	}
	return Snippet{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
		Verified:       u.Verified,
	}
}

func (u *User) IsFollowing(id ID) bool {
	return containsID(u.Following, id)
}

func (u *User) IsConnected(id ID) bool {
	return containsID(u.Connections, id)
}

type CreateParams struct {
	ID             ID
	ExternalID     string
	Email          string
	Username       string
	FullName       string
	ProfilePicture string
	PasswordHash   string
	CreatedAt      time.Time
}

func New(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	username := normalizeUsername(params.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	fullName := strings.TrimSpace(params.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:             ID(id),
		ExternalID:     strings.TrimSpace(params.ExternalID),
		Email:          email,
		Username:       username,
		FullName:       fullName,
		ProfilePicture: strings.TrimSpace(params.ProfilePicture),
		PasswordHash:   params.PasswordHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// current value untouched, so a partial PUT only changes what it names.
type ProfileUpdate struct {
	Bio            *string
	Location       *string
	ProfilePicture *string
	CoverPhoto     *string
}

func (u *User) ApplyProfile(update ProfileUpdate, now time.Time) {
	if update.Bio != nil {
		u.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.Location != nil {
		u.Location = strings.TrimSpace(*update.Location)
	}
	if update.ProfilePicture != nil {
		u.ProfilePicture = strings.TrimSpace(*update.ProfilePicture)
	}
	if update.CoverPhoto != nil {
		u.CoverPhoto = strings.TrimSpace(*update.CoverPhoto)
	}
	u.touch(now)
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

// Repository persists users and the follow/connection edges. Follow and
// Connect are set-semantics updates applied to both sides of the edge;
// repeating them is harmless at the storage layer, duplicate checks live
// in the service.
type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByExternalID(ctx context.Context, externalID string) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
	UpdateProfile(ctx context.Context, id ID, update ProfileUpdate) (*User, error)

	Follow(ctx context.Context, follower, target ID) error
	Unfollow(ctx context.Context, follower, target ID) error
	Connect(ctx context.Context, a, b ID) error
	Disconnect(ctx context.Context, a, b ID) error

	Search(ctx context.Context, query string, limit int) ([]Snippet, error)
	Snippets(ctx context.Context, ids []ID) (map[ID]Snippet, error)
}

func containsID(ids []ID, id ID) bool {
	for _, current := range ids {
		if current == id {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
