package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/domain/message"
	"orbit/internal/domain/user"
	"orbit/internal/infra/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.UserRepository, *memory.Outbox) {
	t.Helper()
	users := memory.NewUserRepository()
	box := memory.NewOutbox()
	svc := &Service{
		Messages: memory.NewMessageRepository(),
		Users:    users,
		Outbox:   box,
	}
	return svc, users, box
}

func seedUser(t *testing.T, users *memory.UserRepository, id, username string) {
	t.Helper()
	account, err := user.New(user.CreateParams{
		ID:       user.ID(id),
		Email:    username + "@example.com",
		Username: username,
		FullName: username,
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(context.Background(), account))
}

func TestSendThenThread(t *testing.T) {
	svc, users, box := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	sent, err := svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: "hello"})
	require.NoError(t, err)
	require.NotNil(t, sent.Message)
	assert.NotEmpty(t, sent.Message.ID)
	assert.False(t, sent.Message.CreatedAt.IsZero())
	assert.Equal(t, "alice", sent.Sender.Username)

	views, err := svc.Thread(ctx, "alice", "bob", 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, sent.Message.ID, views[0].Message.ID)

	records := box.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "message.sent", records[0].Name)
}

func TestSendToUnknownRecipient(t *testing.T) {
	svc, users, _ := newTestService(t)
	seedUser(t, users, "alice", "alice")

	_, err := svc.Send(context.Background(), SendParams{Sender: "alice", Recipient: "ghost", Body: "anyone?"})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestSendToSelfRejected(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")

	_, err := svc.Send(ctx, SendParams{Sender: "alice", Recipient: "alice", Body: "note to self"})
	assert.ErrorIs(t, err, message.ErrSelfAddressed)

	summaries, err := svc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, summaries, "a rejected send must not create a conversation")
}

func TestThreadPagingNewestFirstPages(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	bodies := []string{"one", "two", "three", "four", "five"}
	for _, body := range bodies {
		_, err := svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: body})
		require.NoError(t, err)
	}

	// Page 1 holds the newest two, returned oldest-first for display.
	page1, err := svc.Thread(ctx, "bob", "alice", 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "four", page1[0].Message.Body)
	assert.Equal(t, "five", page1[1].Message.Body)

	page3, err := svc.Thread(ctx, "bob", "alice", 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "one", page3[0].Message.Body)

	empty, err := svc.Thread(ctx, "bob", "alice", 4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkSeenIdempotent(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: "ping"})
		require.NoError(t, err)
	}

	marked, err := svc.MarkSeen(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	again, err := svc.MarkSeen(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestMarkSeenOnlyCountsInbound(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	_, err := svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: "hi"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendParams{Sender: "bob", Recipient: "alice", Body: "hey"})
	require.NoError(t, err)

	// Bob opens the thread: only alice's message flips.
	marked, err := svc.MarkSeen(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	summaries, err := svc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].UnreadCount, "bob's reply is still unread for alice")
}

func TestMessageSentAfterSeenStaysUnread(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	_, err := svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: "first"})
	require.NoError(t, err)
	_, err = svc.MarkSeen(ctx, "bob", "alice")
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: "second"})
	require.NoError(t, err)

	summaries, err := svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
	assert.Equal(t, "second", summaries[0].LastMessage.Body)
	assert.False(t, summaries[0].LastMessage.Seen)
}

func TestListConversationsOrderingAndSnippets(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")
	seedUser(t, users, "carol", "carol")

	_, err := svc.Send(ctx, SendParams{Sender: "bob", Recipient: "alice", Body: "old news"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendParams{Sender: "carol", Recipient: "alice", Body: "fresh"})
	require.NoError(t, err)

	summaries, err := svc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, user.ID("carol"), summaries[0].Counterpart.ID)
	assert.Equal(t, "carol", summaries[0].Counterpart.Username)
	assert.Equal(t, user.ID("bob"), summaries[1].Counterpart.ID)

	for _, summary := range summaries {
		assert.NotEqual(t, user.ID("alice"), summary.Counterpart.ID, "viewer never appears as a counterpart")
	}

	// A reply moves the conversation back to the top.
	_, err = svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: "catching up"})
	require.NoError(t, err)
	summaries, err = svc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, user.ID("bob"), summaries[0].Counterpart.ID)
	assert.Equal(t, "catching up", summaries[0].LastMessage.Body)
	assert.Zero(t, summaries[0].UnreadCount, "own outbound message is not unread")
}

func TestListConversationsToleratesMissingCounterpart(t *testing.T) {
	users := memory.NewUserRepository()
	messages := memory.NewMessageRepository()
	svc := &Service{Messages: messages, Users: users}
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")

	// Message log references a user record that no longer exists.
	orphan, err := message.New(message.CreateParams{SenderID: "gone", RecipientID: "alice", Body: "hello?"})
	require.NoError(t, err)
	require.NoError(t, messages.Insert(ctx, orphan))

	summaries, err := svc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, user.ID("gone"), summaries[0].Counterpart.ID)
	assert.Empty(t, summaries[0].Counterpart.Username)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
}

func TestImageMessageRoundTrip(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	sent, err := svc.Send(ctx, SendParams{
		Sender:        "alice",
		Recipient:     "bob",
		AttachmentURL: "https://cdn.example.com/cat.png",
		Kind:          message.KindImage,
	})
	require.NoError(t, err)

	views, err := svc.Thread(ctx, "bob", "alice", 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, sent.Message.AttachmentURL, views[0].Message.AttachmentURL)
	assert.Equal(t, message.KindImage, views[0].Message.Kind)
	assert.Empty(t, views[0].Message.Body)
}

func TestThreadOrderingStableWithinMillisecond(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	var created []time.Time
	for _, body := range []string{"a", "b", "c", "d"} {
		sent, err := svc.Send(ctx, SendParams{Sender: "alice", Recipient: "bob", Body: body})
		require.NoError(t, err)
		created = append(created, sent.Message.CreatedAt)
	}
	for i := 1; i < len(created); i++ {
		assert.False(t, created[i].Before(created[i-1]), "creation time never goes backwards")
	}

	views, err := svc.Thread(ctx, "alice", "bob", 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.Equal(t, "a", views[0].Message.Body)
	assert.Equal(t, "d", views[3].Message.Body)
}
