package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "orbit/internal/domain/auth"
	domainuser "orbit/internal/domain/user"
	"orbit/internal/infra/storage/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type seqTokens struct{ n int }

func (g *seqTokens) NewToken() (string, error) {
	g.n++
	return fmt.Sprintf("token-%d", g.n), nil
}

type staticProvider struct {
	claims ProviderClaims
	err    error
}

func (p staticProvider) Verify(context.Context, string) (ProviderClaims, error) {
	return p.claims, p.err
}

func newTestService(provider ProviderVerifier) *Service {
	return &Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		Passwords: plainHasher{},
		Tokens:    &seqTokens{},
		Provider:  provider,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "Alice@Example.com",
		Username: "Alice",
		FullName: "Alice Example",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.Equal(t, "alice", registered.User.Username)
	assert.NotEmpty(t, registered.Token)

	result, err := svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)

	_, err = svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "bob@example.com",
		Username: "bob",
		FullName: "Bob",
		Password: "short",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestSyncCreatesUserOnFirstSight(t *testing.T) {
	svc := newTestService(staticProvider{claims: ProviderClaims{
		Subject:  "sub-12345",
		Email:    "carol@example.com",
		Name:     "Carol",
		Username: "carol",
	}})
	ctx := context.Background()

	first, err := svc.Sync(ctx, "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "sub-12345", first.User.ExternalID)
	assert.Equal(t, "carol", first.User.Username)
	assert.NotEmpty(t, first.Token)

	// Second sync resolves the same account, no duplicate.
	second, err := svc.Sync(ctx, "provider-token")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestSyncUsernameCollisionFallsBack(t *testing.T) {
	svc := newTestService(staticProvider{claims: ProviderClaims{
		Subject:  "sub-99",
		Email:    "other@example.com",
		Name:     "Other Carol",
		Username: "carol",
	}})
	ctx := context.Background()

	existing, err := domainuser.New(domainuser.CreateParams{
		ID:       "u1",
		Email:    "carol@example.com",
		Username: "carol",
		FullName: "Carol",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Users.Save(ctx, existing))

	result, err := svc.Sync(ctx, "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "user_sub-99", result.User.Username)
}

func TestSyncInvalidToken(t *testing.T) {
	svc := newTestService(staticProvider{err: errors.New("bad signature")})
	_, err := svc.Sync(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidProviderToken)
}

func TestSyncWithoutProvider(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Sync(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestLoginProviderOnlyAccount(t *testing.T) {
	svc := newTestService(staticProvider{claims: ProviderClaims{
		Subject: "sub-1",
		Email:   "dave@example.com",
		Name:    "Dave",
	}})
	ctx := context.Background()
	_, err := svc.Sync(ctx, "provider-token")
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginParams{Email: "dave@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveTokenAndLogout(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "erin@example.com",
		Username: "erin",
		FullName: "Erin",
		Password: "long enough",
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveToken(ctx, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resolved.User.ID)

	require.NoError(t, svc.Logout(ctx, registered.Token))
	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
