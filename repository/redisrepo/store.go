package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authtoken"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	fieldSubject      = "sub"
	fieldPasswordHash = "password_hash"
)

// Store is a Redis-backed entity repository.
type Store[E any] struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Store using keys under prefix. An empty prefix means "authtoken".
func New[E any](client redis.UniversalClient, prefix string) *Store[E] {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "authtoken"
	}
	return &Store[E]{client: client, prefix: prefix}
}

func (s *Store[E]) entityKey(id string) string {
	return s.prefix + ":entity:" + id
}

func (s *Store[E]) credentialKey(identifier string) string {
	return s.prefix + ":cred:" + strings.ToLower(strings.TrimSpace(identifier))
}

// Put stores entity under id, replacing any previous value.
func (s *Store[E]) Put(ctx context.Context, id string, entity E) error {
	if id == "" {
		return errors.New("empty entity id")
	}
	blob, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode entity: %w", err)
	}
	if err := s.client.Set(ctx, s.entityKey(id), blob, 0).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Register stores entity under id and binds identifier to it with
// passwordHash, atomically.
func (s *Store[E]) Register(ctx context.Context, identifier, id, passwordHash string, entity E) error {
	if id == "" || strings.TrimSpace(identifier) == "" {
		return errors.New("empty entity id or identifier")
	}
	blob, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode entity: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.entityKey(id), blob, 0)
		pipe.HSet(ctx, s.credentialKey(identifier), fieldSubject, id, fieldPasswordHash, passwordHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes the entity stored under id. Deleting a missing entity is not an error.
func (s *Store[E]) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.entityKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// FindByID implements authtoken.IDLookup.
func (s *Store[E]) FindByID(ctx context.Context, id string) (E, error) {
	var entity E
	if id == "" {
		return entity, fmt.Errorf("%w: empty id", authtoken.ErrEntityNotFound)
	}

	blob, err := s.client.Get(ctx, s.entityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity, fmt.Errorf("%w: id %q", authtoken.ErrEntityNotFound, id)
	}
	if err != nil {
		return entity, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	if err := json.Unmarshal(blob, &entity); err != nil {
		return entity, fmt.Errorf("decode entity %q: %w", id, err)
	}
	return entity, nil
}

// FindByIdentifier implements authtoken.CredentialLookup.
func (s *Store[E]) FindByIdentifier(ctx context.Context, identifier string) (authtoken.Credential[E], error) {
	var cred authtoken.Credential[E]

	fields, err := s.client.HGetAll(ctx, s.credentialKey(identifier)).Result()
	if err != nil {
		return cred, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	sub := fields[fieldSubject]
	if sub == "" {
		return cred, authtoken.ErrEntityNotFound
	}

	entity, err := s.FindByID(ctx, sub)
	if err != nil {
		return cred, err
	}

	cred.Subject = sub
	cred.PasswordHash = fields[fieldPasswordHash]
	cred.Entity = entity
	return cred, nil
}

var (
	_ authtoken.IDLookup[struct{}]         = (*Store[struct{}])(nil)
	_ authtoken.CredentialLookup[struct{}] = (*Store[struct{}])(nil)
)
