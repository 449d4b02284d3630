// Package redistore provides an IdentityStore backed by Redis.
//
// Each identity lives under two keys: a record key holding the JSON-encoded
// identity and an email key pointing back at the identity ID. Save and Delete
// keep the pair consistent with WATCH-guarded transactions, so email
// uniqueness holds even with concurrent writers on separate connections.
package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/varkis-sec/authgate"
)

const (
	identityRecordVersion = 1
	maxRetries            = 4
)

// ErrRedisUnavailable wraps transport and server failures so callers can tell
// an unreachable Redis apart from a domain outcome like a missing record.
var ErrRedisUnavailable = errors.New("identity redis unavailable")

// errStale marks a WATCH attempt whose key set was computed against a record
// that changed before the transaction started. The caller re-plans and retries.
var errStale = errors.New("stale watch set")

type identityRecord struct {
	Version           int       `json:"v"`
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	Active            bool      `json:"active"`
	PasswordHash      string    `json:"password_hash"`
	LastLoginAt       time.Time `json:"last_login_at"`
	PasswordChangedAt time.Time `json:"password_changed_at"`
	ResetDigest       []byte    `json:"reset_digest,omitempty"`
	ResetExpiresAt    time.Time `json:"reset_expires_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newIdentityRecord(identity *authgate.Identity) *identityRecord {
	return &identityRecord{
		Version:           identityRecordVersion,
		ID:                identity.ID,
		Email:             identity.Email,
		Name:              identity.Name,
		Role:              string(identity.Role),
		Active:            identity.Active,
		PasswordHash:      identity.PasswordHash,
		LastLoginAt:       identity.LastLoginAt,
		PasswordChangedAt: identity.PasswordChangedAt,
		ResetDigest:       append([]byte(nil), identity.ResetDigest...),
		ResetExpiresAt:    identity.ResetExpiresAt,
		CreatedAt:         identity.CreatedAt,
		UpdatedAt:         identity.UpdatedAt,
	}
}

func (r *identityRecord) identity() *authgate.Identity {
	return &authgate.Identity{
		ID:                r.ID,
		Email:             r.Email,
		Name:              r.Name,
		Role:              authgate.Role(r.Role),
		Active:            r.Active,
		PasswordHash:      r.PasswordHash,
		LastLoginAt:       r.LastLoginAt,
		PasswordChangedAt: r.PasswordChangedAt,
		ResetDigest:       append([]byte(nil), r.ResetDigest...),
		ResetExpiresAt:    r.ResetExpiresAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func decodeIdentityRecord(data []byte) (*identityRecord, error) {
	var record identityRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode identity record: %v", err)
	}
	if record.Version != identityRecordVersion {
		return nil, fmt.Errorf("invalid identity record version %d", record.Version)
	}
	return &record, nil
}

// Store implements authgate.IdentityStore on a Redis backend.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store using the given client. An empty prefix defaults to
// "authgate".
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "authgate"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) identityKey(id string) string {
	return s.prefix + ":identity:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

// FindByID returns the identity stored under the given ID.
func (s *Store) FindByID(ctx context.Context, id string) (*authgate.Identity, error) {
	data, err := s.redis.Get(ctx, s.identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authgate.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	record, err := decodeIdentityRecord(data)
	if err != nil {
		return nil, err
	}
	return record.identity(), nil
}

// FindByEmail resolves the email index and returns the owning identity.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authgate.Identity, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authgate.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

// Save writes the whole record and keeps the email index in step with it. The
// first Save of an ID stamps CreatedAt; every Save refreshes UpdatedAt.
//
// Uniqueness and reindexing run inside a WATCH transaction over the record key
// and both email keys, so a concurrent claim of the same email makes exactly
// one writer win and the other return [authgate.ErrEmailTaken].
func (s *Store) Save(ctx context.Context, identity *authgate.Identity) error {
	for i := 0; i < maxRetries; i++ {
		prior, err := s.peek(ctx, identity.ID)
		if err != nil {
			return err
		}

		keys := []string{s.identityKey(identity.ID), s.emailKey(identity.Email)}
		if prior != nil && prior.Email != identity.Email {
			keys = append(keys, s.emailKey(prior.Email))
		}

		err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := s.txPeek(ctx, tx, identity.ID)
			if err != nil {
				return err
			}
			// The watched key set was derived from prior; if the record
			// moved underneath us the set may be wrong, so re-plan.
			if !sameRecordEmail(prior, current) {
				return errStale
			}

			owner, err := tx.Get(ctx, s.emailKey(identity.Email)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil && owner != identity.ID {
				return authgate.ErrEmailTaken
			}

			record := newIdentityRecord(identity)
			now := time.Now().UTC()
			if current != nil {
				record.CreatedAt = current.CreatedAt
			} else if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
			record.UpdatedAt = now

			payload, err := json.Marshal(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.identityKey(identity.ID), payload, 0)
				pipe.Set(ctx, s.emailKey(identity.Email), identity.ID, 0)
				if current != nil && current.Email != identity.Email {
					pipe.Del(ctx, s.emailKey(current.Email))
				}
				return nil
			})
			return err
		}, keys...)

		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr), errors.Is(err, errStale):
			continue
		case errors.Is(err, authgate.ErrEmailTaken):
			return authgate.ErrEmailTaken
		default:
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return fmt.Errorf("%w: save of identity %s retried %d times", ErrRedisUnavailable, identity.ID, maxRetries)
}

// Delete removes the record and its email index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	for i := 0; i < maxRetries; i++ {
		prior, err := s.peek(ctx, id)
		if err != nil {
			return err
		}
		if prior == nil {
			return authgate.ErrIdentityNotFound
		}

		keys := []string{s.identityKey(id), s.emailKey(prior.Email)}
		err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
			current, err := s.txPeek(ctx, tx, id)
			if err != nil {
				return err
			}
			if current == nil {
				return authgate.ErrIdentityNotFound
			}
			if current.Email != prior.Email {
				return errStale
			}

			// Drop the email key only while it still points at this record.
			ownerIsSelf := false
			owner, err := tx.Get(ctx, s.emailKey(current.Email)).Result()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				ownerIsSelf = owner == id
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, s.identityKey(id))
				if ownerIsSelf {
					pipe.Del(ctx, s.emailKey(current.Email))
				}
				return nil
			})
			return err
		}, keys...)

		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr), errors.Is(err, errStale):
			continue
		case errors.Is(err, authgate.ErrIdentityNotFound):
			return authgate.ErrIdentityNotFound
		default:
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return fmt.Errorf("%w: delete of identity %s retried %d times", ErrRedisUnavailable, id, maxRetries)
}

// peek reads the current record outside any transaction. A missing record is
// (nil, nil), not an error.
func (s *Store) peek(ctx context.Context, id string) (*identityRecord, error) {
	data, err := s.redis.Get(ctx, s.identityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return decodeIdentityRecord(data)
}

func (s *Store) txPeek(ctx context.Context, tx *redis.Tx, id string) (*identityRecord, error) {
	data, err := tx.Get(ctx, s.identityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIdentityRecord(data)
}

func sameRecordEmail(a, b *identityRecord) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Email == b.Email
}

var _ authgate.IdentityStore = (*Store)(nil)
