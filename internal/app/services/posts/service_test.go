package posts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/domain/post"
	"orbit/internal/domain/user"
	"orbit/internal/infra/storage/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	users := memory.NewUserRepository()
	for _, name := range []string{"alice", "bob"} {
		account, err := user.New(user.CreateParams{
			ID:       user.ID(name),
			Email:    name + "@example.com",
			Username: name,
			FullName: name,
		})
		require.NoError(t, err)
		require.NoError(t, users.Save(context.Background(), account))
	}
	return &Service{
		Posts:  memory.NewPostRepository(),
		Users:  users,
		Outbox: memory.NewOutbox(),
	}
}

func TestCreateExtractsHashtags(t *testing.T) {
	svc := newTestService(t)
	view, err := svc.Create(context.Background(), CreateParams{
		Author:  "alice",
		Content: "shipping the new #Search today, feedback welcome #DevLife",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "devlife"}, view.Post.Hashtags)
	assert.Equal(t, post.TypeText, view.Post.Type)
	assert.Equal(t, "alice", view.Author.Username)
}

func TestFeedPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := svc.Create(ctx, CreateParams{Author: "alice", Content: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
	}

	page, err := svc.Feed(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.TotalPosts)
	assert.Equal(t, int64(3), page.TotalPages)
	require.Len(t, page.Posts, 3)
	assert.Equal(t, "post 6", page.Posts[0].Post.Content, "feed is newest-first")

	last, err := svc.Feed(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, last.Posts, 1)
	assert.Equal(t, "post 0", last.Posts[0].Post.Content)
}

func TestToggleLike(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	view, err := svc.Create(ctx, CreateParams{Author: "alice", Content: "like me"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, view.Post.ID, "bob")
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikesCount)

	unliked, err := svc.ToggleLike(ctx, view.Post.ID, "bob")
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.Zero(t, unliked.LikesCount)
}

func TestDeleteRequiresOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	view, err := svc.Create(ctx, CreateParams{Author: "alice", Content: "mine"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, view.Post.ID, "bob"), post.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, view.Post.ID, "alice"))
	assert.ErrorIs(t, svc.Delete(ctx, view.Post.ID, "alice"), post.ErrNotFound)
}

func TestByUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateParams{Author: "alice", Content: "a1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Author: "bob", Content: "b1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Author: "alice", Content: "a2"})
	require.NoError(t, err)

	views, err := svc.ByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "a2", views[0].Post.Content)
	assert.Equal(t, "a1", views[1].Post.Content)
}
