// Package memory provides an in-process IdentityStore backed by a mutex-guarded
// map. It is suitable for tests, examples, and single-node tools; records do
// not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/varkis-sec/authgate"
)

// Store keeps identities in memory, indexed by ID and by email.
//
// All methods are safe for concurrent use. Records are cloned on the way in
// and out, so callers never share mutable state with the store.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*authgate.Identity
	byEmail map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*authgate.Identity),
		byEmail: make(map[string]string),
	}
}

// FindByID returns the identity with the given ID.
func (s *Store) FindByID(ctx context.Context, id string) (*authgate.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, authgate.ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

// FindByEmail returns the identity registered under the given email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authgate.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, authgate.ErrIdentityNotFound
	}
	return s.byID[id].Clone(), nil
}

// Save inserts or replaces the whole record. The first Save of an ID stamps
// CreatedAt; every Save refreshes UpdatedAt and keeps the email index in step
// with the record.
func (s *Store) Save(ctx context.Context, identity *authgate.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.byEmail[identity.Email]; ok && owner != identity.ID {
		return authgate.ErrEmailTaken
	}

	record := identity.Clone()
	now := time.Now().UTC()
	if prior, ok := s.byID[record.ID]; ok {
		record.CreatedAt = prior.CreatedAt
		if prior.Email != record.Email {
			delete(s.byEmail, prior.Email)
		}
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	s.byID[record.ID] = record
	s.byEmail[record.Email] = record.ID
	return nil
}

// Delete removes the identity and its email index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return authgate.ErrIdentityNotFound
	}
	delete(s.byEmail, identity.Email)
	delete(s.byID, id)
	return nil
}

// Len reports how many identities the store currently holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

var _ authgate.IdentityStore = (*Store)(nil)
