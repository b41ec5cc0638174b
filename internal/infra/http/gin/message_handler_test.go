package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "orbit/internal/app/services/auth"
	"orbit/internal/app/services/messaging"
	"orbit/internal/app/services/social"
	"orbit/internal/infra/config"
	"orbit/internal/infra/obs"
	"orbit/internal/infra/security"
	"orbit/internal/infra/storage/memory"
)

// newTestRouter wires the real handlers against in-memory storage, the same
// shape main builds in memory mode.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	users := memory.NewUserRepository()
	messages := memory.NewMessageRepository()
	sessions := memory.NewSessionStore()
	box := memory.NewOutbox()

	auth := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
	socialService := &social.Service{Users: users, Outbox: box}
	messagingService := &messaging.Service{Messages: messages, Users: users, Outbox: box}

	server := NewServer(
		config.Config{Env: "test", HTTPAddr: ":0"},
		obs.Middleware{},
		obs.HealthHandlers{},
		Handlers{
			Auth:           AuthHandler{Service: auth, Social: socialService},
			Messages:       MessageHandler{Service: messagingService},
			AuthMiddleware: AuthMiddleware{Service: auth}.Handle,
		},
	)
	return server.Handler
}

type testClient struct {
	t      *testing.T
	router http.Handler
}

func (c testClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c testClient) decode(rec *httptest.ResponseRecorder, out any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out))
}

type authPayload struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Token string `json:"token"`
}

func (c testClient) register(email, username string) authPayload {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     email,
		"username":  username,
		"full_name": "Test " + username,
		"password":  "opensesame",
	})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	var payload authPayload
	c.decode(rec, &payload)
	require.NotEmpty(c.t, payload.Token)
	require.NotEmpty(c.t, payload.User.ID)
	return payload
}

type messagePayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Seen bool   `json:"seen"`
	From struct {
		ID string `json:"id"`
	} `json:"from_user"`
}

type conversationsPayload struct {
	Items []struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
		LastMessage struct {
			Text string `json:"text"`
		} `json:"last_message"`
		UnreadCount int64 `json:"unread_count"`
	} `json:"items"`
}

func TestSendRequiresAuth(t *testing.T) {
	client := testClient{t: t, router: newTestRouter(t)}
	rec := client.do(http.MethodPost, "/api/v1/messages", "", map[string]string{
		"to_user_id": "someone", "text": "hi",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendToUnknownUserReturnsNotFound(t *testing.T) {
	client := testClient{t: t, router: newTestRouter(t)}
	alice := client.register("alice@example.com", "alice")

	rec := client.do(http.MethodPost, "/api/v1/messages", alice.Token, map[string]string{
		"to_user_id": "missing", "text": "hello?",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThreadFirstPageClearsUnread(t *testing.T) {
	client := testClient{t: t, router: newTestRouter(t)}
	alice := client.register("alice@example.com", "alice")
	bob := client.register("bob@example.com", "bob")

	for _, text := range []string{"hey", "are you there?"} {
		rec := client.do(http.MethodPost, "/api/v1/messages", alice.Token, map[string]string{
			"to_user_id": bob.User.ID, "text": text,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := client.do(http.MethodGet, "/api/v1/messages", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var before conversationsPayload
	client.decode(rec, &before)
	require.Len(t, before.Items, 1)
	assert.Equal(t, "alice", before.Items[0].User.Username)
	assert.Equal(t, "are you there?", before.Items[0].LastMessage.Text)
	assert.Equal(t, int64(2), before.Items[0].UnreadCount)

	// Opening the thread is what marks the messages as seen. Pages read
	// oldest-first.
	rec = client.do(http.MethodGet, "/api/v1/messages/"+alice.User.ID, bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var thread struct {
		Items []messagePayload `json:"items"`
		Page  int              `json:"page"`
	}
	client.decode(rec, &thread)
	require.Len(t, thread.Items, 2)
	assert.Equal(t, 1, thread.Page)
	assert.Equal(t, "hey", thread.Items[0].Text)
	assert.Equal(t, "are you there?", thread.Items[1].Text)

	rec = client.do(http.MethodGet, "/api/v1/messages", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after conversationsPayload
	client.decode(rec, &after)
	require.Len(t, after.Items, 1)
	assert.Equal(t, int64(0), after.Items[0].UnreadCount)
}

func TestThreadLaterPagesLeaveUnreadAlone(t *testing.T) {
	client := testClient{t: t, router: newTestRouter(t)}
	alice := client.register("alice@example.com", "alice")
	bob := client.register("bob@example.com", "bob")

	for _, text := range []string{"one", "two", "three"} {
		rec := client.do(http.MethodPost, "/api/v1/messages", alice.Token, map[string]string{
			"to_user_id": bob.User.ID, "text": text,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := client.do(http.MethodGet, "/api/v1/messages/"+alice.User.ID+"?page=2&limit=1", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var thread struct {
		Items []messagePayload `json:"items"`
	}
	client.decode(rec, &thread)
	require.Len(t, thread.Items, 1)
	assert.Equal(t, "two", thread.Items[0].Text)

	rec = client.do(http.MethodGet, "/api/v1/messages", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries conversationsPayload
	client.decode(rec, &summaries)
	require.Len(t, summaries.Items, 1)
	assert.Equal(t, int64(3), summaries.Items[0].UnreadCount)
}

func TestMarkSeenEndpoint(t *testing.T) {
	client := testClient{t: t, router: newTestRouter(t)}
	alice := client.register("alice@example.com", "alice")
	bob := client.register("bob@example.com", "bob")

	rec := client.do(http.MethodPost, "/api/v1/messages", alice.Token, map[string]string{
		"to_user_id": bob.User.ID, "text": "ping",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = client.do(http.MethodPost, "/api/v1/messages/"+alice.User.ID+"/seen", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Marked int64 `json:"marked"`
	}
	client.decode(rec, &result)
	assert.Equal(t, int64(1), result.Marked)

	// A second pass has nothing left to mark.
	rec = client.do(http.MethodPost, "/api/v1/messages/"+alice.User.ID+"/seen", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	client.decode(rec, &result)
	assert.Equal(t, int64(0), result.Marked)
}
