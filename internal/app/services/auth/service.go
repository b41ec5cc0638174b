package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	domainauth "orbit/internal/domain/auth"
	domainuser "orbit/internal/domain/user"
)

var (
	ErrInvalidCredentials    = errors.New("auth: invalid credentials")
	ErrPasswordTooShort      = errors.New("auth: password must be at least 8 characters")
	ErrInvalidProviderToken  = errors.New("auth: invalid provider token")
	ErrProviderNotConfigured = errors.New("auth: identity provider not configured")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// ProviderClaims are the profile facts the identity provider asserts about
// a subject. Subject is the provider's opaque stable user ID.
type ProviderClaims struct {
	Subject  string
	Email    string
	Name     string
	Username string
	Picture  string
}

// ProviderVerifier checks a provider-issued token and extracts its claims.
type ProviderVerifier interface {
	Verify(ctx context.Context, token string) (ProviderClaims, error)
}

// Service maps identities to internal users and manages bearer sessions.
// Sync is the provider path (lazy 1:1 user creation on first sight);
// Register and Login are the local credential fallback.
type Service struct {
	Users      domainuser.Repository
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	Provider   ProviderVerifier
	SessionTTL time.Duration
	Logger     *slog.Logger
}

type RegisterParams struct {
	Email    string
	Username string
	FullName string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

type ResolveResult struct {
	User    *domainuser.User
	Session *domainauth.Session
}

// Sync exchanges a provider token for a session, creating the internal
// user on first sight. The internal user ID is never taken from the
// client; the mapping key is the verified provider subject.
func (s *Service) Sync(ctx context.Context, providerToken string) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if s.Provider == nil {
		return nil, ErrProviderNotConfigured
	}
	claims, err := s.Provider.Verify(ctx, strings.TrimSpace(providerToken))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProviderToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidProviderToken
	}

	user, err := s.Users.ByExternalID(ctx, claims.Subject)
	switch {
	case err == nil:
	case errors.Is(err, domainuser.ErrNotFound):
		user, err = s.createFromClaims(ctx, claims)
		if err != nil {
			return nil, err
		}
		if s.Logger != nil {
			s.Logger.Info("user synced from provider", "user_id", user.ID, "external_id", claims.Subject)
		}
	default:
		return nil, err
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) createFromClaims(ctx context.Context, claims ProviderClaims) (*domainuser.User, error) {
	username := strings.TrimSpace(claims.Username)
	if username == "" {
		username = fallbackUsername(claims.Subject)
	}
	fullName := strings.TrimSpace(claims.Name)
	if fullName == "" {
		fullName = username
	}
	user, err := domainuser.New(domainuser.CreateParams{
		ID:             domainuser.ID(uuid.NewString()),
		ExternalID:     claims.Subject,
		Email:          claims.Email,
		Username:       username,
		FullName:       fullName,
		ProfilePicture: claims.Picture,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, user); err != nil {
		if errors.Is(err, domainuser.ErrUsernameTaken) {
			// Collision on the claimed handle: retry once with the
			// subject-derived fallback.
			user.Username = fallbackUsername(claims.Subject)
			if retryErr := s.Users.Save(ctx, user); retryErr != nil {
				return nil, retryErr
			}
			return user, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := s.validatePassword(params.Password); err != nil {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	user, err := domainuser.New(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        params.Email,
		Username:     params.Username,
		FullName:     params.FullName,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		// Provider-managed account without a local password.
		return nil, ErrInvalidCredentials
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, domainauth.Token(token))
}

func (s *Service) ResolveToken(ctx context.Context, token string) (*ResolveResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	user, err := s.Users.ByID(ctx, session.UserID)
	if err != nil {
		_ = s.Sessions.Delete(ctx, session.Token)
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	return &ResolveResult{User: user, Session: session}, nil
}

func (s *Service) issueSession(ctx context.Context, user *domainuser.User) (string, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return "", err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: user.ID,
		TTL:    s.sessionTTL(),
		Now:    time.Now(),
	})
	if err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func (s *Service) validatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

func fallbackUsername(subject string) string {
	cleaned := strings.ToLower(strings.TrimSpace(subject))
	if len(cleaned) > 8 {
		cleaned = cleaned[:8]
	}
	return "user_" + cleaned
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("auth: user repository required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
