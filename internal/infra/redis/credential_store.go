package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kibaro-cli/internal/domain"

	"github.com/redis/go-redis/v9"
)

// CredentialStore persists the session as a JSON string under one key.
// A ttl of zero keeps it until logout.
type CredentialStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewCredentialStore(client *redis.Client, key string, ttl time.Duration) *CredentialStore {
	return &CredentialStore{client: client, key: key, ttl: ttl}
}

func (s *CredentialStore) Load(ctx context.Context) (domain.Credentials, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Credentials{}, false, nil
	}
	if err != nil {
		return domain.Credentials{}, false, fmt.Errorf("read session: %w", err)
	}
	var creds domain.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return domain.Credentials{}, false, fmt.Errorf("decode session: %w", err)
	}
	return creds, creds.Token != "", nil
}

func (s *CredentialStore) Save(ctx context.Context, creds domain.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, raw, s.ttl).Err()
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
