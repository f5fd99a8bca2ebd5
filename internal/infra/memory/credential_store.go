package memory

import (
	"context"
	"sync"

	"kibaro-cli/internal/domain"
)

// CredentialStore keeps the session for the life of the process only.
type CredentialStore struct {
	mu    sync.RWMutex
	creds *domain.Credentials
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Load(_ context.Context) (domain.Credentials, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return domain.Credentials{}, false, nil
	}
	return cloneCredentials(*s.creds), true, nil
}

func (s *CredentialStore) Save(_ context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneCredentials(creds)
	s.creds = &c
	return nil
}

func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}

func cloneCredentials(c domain.Credentials) domain.Credentials {
	if c.User != nil {
		u := *c.User
		c.User = &u
	}
	return c
}
