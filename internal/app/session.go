package app

import (
	"context"
	"fmt"
	"sync"

	"kibaro-cli/internal/domain"
	"kibaro-cli/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// AuthState distinguishes "not loaded yet" from "not authenticated".
type AuthState int

const (
	StateLoading AuthState = iota
	StateAnonymous
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionStore holds the identity and bearer token for the lifetime of the process.
// Only the auth flows and the points refresh write to it.
type SessionStore struct {
	api   AuthAPI
	creds CredentialStore
	sf    singleflight.Group

	mu    sync.RWMutex
	state AuthState
	token string
	user  *domain.User
}

func NewSessionStore(api AuthAPI, creds CredentialStore) *SessionStore {
	return &SessionStore{api: api, creds: creds, state: StateLoading}
}

// Load rehydrates token and user from persisted storage. On a storage error
// the store still leaves the loading state, as anonymous.
func (s *SessionStore) Load(ctx context.Context) error {
	creds, ok, err := s.creds.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || !ok || creds.Token == "" {
		s.state, s.token, s.user = StateAnonymous, "", nil
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		return nil
	}
	s.token = creds.Token
	s.user = creds.User
	s.state = StateAuthenticated
	return nil
}

// State reports where the store is in its lifecycle.
func (s *SessionStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token, empty when anonymous.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user.
func (s *SessionStore) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// UserID prefers the stored user and falls back to the token's userId claim.
func (s *SessionStore) UserID() string {
	if u, ok := s.User(); ok && u.ID != "" {
		return u.ID
	}
	return UserIDFromToken(s.Token())
}

// UserIDFromToken reads the userId (or sub) claim without verifying the signature.
// The server verifies tokens; the client only needs to recognise itself.
func UserIDFromToken(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range []string{"userId", "id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Login authenticates, persists the session, then refreshes points best-effort.
func (s *SessionStore) Login(ctx context.Context, email, password string) (domain.User, error) {
	in := domain.LoginInput{Email: email, Password: password}
	if err := domain.Validate(in); err != nil {
		return domain.User{}, err
	}
	resp, err := s.api.Login(ctx, in)
	if err != nil {
		return domain.User{}, err
	}
	return s.establish(ctx, resp)
}

// Register creates an account and signs in with it.
func (s *SessionStore) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	in := domain.RegisterInput{Username: username, Email: email, Password: password}
	if err := domain.Validate(in); err != nil {
		return domain.User{}, err
	}
	resp, err := s.api.Register(ctx, in)
	if err != nil {
		return domain.User{}, err
	}
	return s.establish(ctx, resp)
}

func (s *SessionStore) establish(ctx context.Context, resp domain.AuthResponse) (domain.User, error) {
	if resp.Token == "" {
		return domain.User{}, fmt.Errorf("auth response without token")
	}
	user := resp.User

	s.mu.Lock()
	s.token = resp.Token
	s.user = &user
	s.state = StateAuthenticated
	s.mu.Unlock()

	if err := s.creds.Save(ctx, domain.Credentials{Token: resp.Token, User: &user}); err != nil {
		// a session that cannot be stored would be lost on the next run
		s.mu.Lock()
		s.token, s.user = "", nil
		s.state = StateAnonymous
		s.mu.Unlock()
		return domain.User{}, fmt.Errorf("persist session: %w", err)
	}

	if err := s.RefreshPoints(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("points refresh after sign-in failed")
	}
	if u, ok := s.User(); ok {
		user = u
	}
	return user, nil
}

// Logout forgets the session locally. The backend is not told.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.state = StateAnonymous
	s.mu.Unlock()
	return s.creds.Clear(ctx)
}

// RefreshPoints re-sums /scores/me into the user's points and persists the result.
// Concurrent calls share one request. Without a token it does nothing.
func (s *SessionStore) RefreshPoints(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	_, err, _ := s.sf.Do("points", func() (interface{}, error) {
		scores, err := s.api.MyScores(ctx)
		if err != nil {
			return nil, err
		}
		total := domain.TotalPoints(scores)

		s.mu.Lock()
		if s.user == nil || s.token != token {
			s.mu.Unlock()
			return nil, nil
		}
		s.user.Points = total
		creds := domain.Credentials{Token: s.token, User: copyUser(s.user)}
		s.mu.Unlock()

		return nil, s.creds.Save(ctx, creds)
	})
	return err
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}
