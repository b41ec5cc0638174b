package stories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/domain/story"
	"orbit/internal/domain/user"
	"orbit/internal/infra/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	return &Service{Stories: memory.NewStoryRepository(), Users: users}, users
}

func seedUser(t *testing.T, users *memory.UserRepository, id string) {
	t.Helper()
	account, err := user.New(user.CreateParams{
		ID:       user.ID(id),
		Email:    id + "@example.com",
		Username: id,
		FullName: id,
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(context.Background(), account))
}

func TestCreateDefaults(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, users, "alice")

	view, err := svc.Create(context.Background(), CreateParams{Author: "alice", Content: "brb"})
	require.NoError(t, err)
	assert.Equal(t, story.MediaText, view.Story.MediaType)
	assert.NotEmpty(t, view.Story.BackgroundColor)
	assert.WithinDuration(t, view.Story.CreatedAt.Add(story.DefaultTTL), view.Story.ExpiresAt, time.Second)
}

func TestFeedIncludesSelfAndFollowed(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice")
	seedUser(t, users, "bob")
	seedUser(t, users, "carol")
	require.NoError(t, users.Follow(ctx, "alice", "bob"))

	_, err := svc.Create(ctx, CreateParams{Author: "alice", Content: "mine"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Author: "bob", Content: "followed"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Author: "carol", Content: "stranger"})
	require.NoError(t, err)

	reels, err := svc.Feed(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, reels, 2)
	// Bob's story is newer than alice's, so his reel comes first.
	assert.Equal(t, user.ID("bob"), reels[0].Author.ID)
	assert.Equal(t, user.ID("alice"), reels[1].Author.ID)
	for _, reel := range reels {
		assert.NotEqual(t, user.ID("carol"), reel.Author.ID)
	}
}

func TestFeedSkipsExpired(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice")

	expired, err := story.New(story.CreateParams{
		UserID:  "alice",
		Content: "yesterday",
		TTL:     time.Hour,
		Now:     time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Stories.Insert(ctx, expired))

	reels, err := svc.Feed(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, reels)
}

func TestDeleteRequiresOwnership(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice")
	seedUser(t, users, "bob")

	view, err := svc.Create(ctx, CreateParams{Author: "alice", Content: "temp"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, view.Story.ID, "bob"), story.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, view.Story.ID, "alice"))
}
