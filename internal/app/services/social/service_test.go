package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/domain/user"
	"orbit/internal/infra/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Outbox) {
	t.Helper()
	box := memory.NewOutbox()
	return &Service{Users: memory.NewUserRepository(), Outbox: box}, box
}

func seedUser(t *testing.T, svc *Service, id, username string) {
	t.Helper()
	account, err := user.New(user.CreateParams{
		ID:       user.ID(id),
		Email:    username + "@example.com",
		Username: username,
		FullName: "The " + username,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Users.Save(context.Background(), account))
}

func TestFollow(t *testing.T) {
	svc, box := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "alice")
	seedUser(t, svc, "bob", "bob")

	require.NoError(t, svc.Follow(ctx, "alice", "bob"))

	profile, err := svc.Profile(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, profile.Followers, 1)
	assert.Equal(t, user.ID("alice"), profile.Followers[0].ID)
	assert.Equal(t, "alice", profile.Followers[0].Username)

	assert.ErrorIs(t, svc.Follow(ctx, "alice", "bob"), user.ErrAlreadyFollowing)
	assert.ErrorIs(t, svc.Follow(ctx, "alice", "alice"), user.ErrSelfReference)
	assert.ErrorIs(t, svc.Follow(ctx, "alice", "ghost"), user.ErrNotFound)

	records := box.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "user.followed", records[0].Name)
}

func TestUnfollow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "alice")
	seedUser(t, svc, "bob", "bob")

	require.NoError(t, svc.Follow(ctx, "alice", "bob"))
	require.NoError(t, svc.Unfollow(ctx, "alice", "bob"))

	edges, err := svc.Edges(ctx, "alice", EdgeFollowing)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestConnectIsMutual(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "alice")
	seedUser(t, svc, "bob", "bob")

	require.NoError(t, svc.Connect(ctx, "alice", "bob"))

	aliceEdges, err := svc.Edges(ctx, "alice", EdgeConnections)
	require.NoError(t, err)
	bobEdges, err := svc.Edges(ctx, "bob", EdgeConnections)
	require.NoError(t, err)
	require.Len(t, aliceEdges, 1)
	require.Len(t, bobEdges, 1)
	assert.Equal(t, user.ID("bob"), aliceEdges[0].ID)
	assert.Equal(t, user.ID("alice"), bobEdges[0].ID)

	assert.ErrorIs(t, svc.Connect(ctx, "bob", "alice"), user.ErrAlreadyConnected)
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "alice")

	bio := "hiking and databases"
	updated, err := svc.UpdateProfile(ctx, "alice", user.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "alice", updated.Username, "unnamed fields stay untouched")
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "alice")
	seedUser(t, svc, "alicia", "alicia")
	seedUser(t, svc, "bob", "bob")

	results, err := svc.Search(ctx, "ali", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	empty, err := svc.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
