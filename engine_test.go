package authgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/varkis-sec/authgate/password"
)

type mockIdentityStore struct {
	mu         sync.Mutex
	identities map[string]*Identity
	emailIndex map[string]string

	findErr   error
	saveErr   error
	deleteErr error

	findByIDCalls    int
	findByEmailCalls int
	saveCalls        int
	deleteCalls      int
}

func newMockStore() *mockIdentityStore {
	return &mockIdentityStore{
		identities: make(map[string]*Identity),
		emailIndex: make(map[string]string),
	}
}

func (m *mockIdentityStore) FindByID(ctx context.Context, id string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByIDCalls++

	if m.findErr != nil {
		return nil, m.findErr
	}
	identity, ok := m.identities[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

func (m *mockIdentityStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByEmailCalls++

	if m.findErr != nil {
		return nil, m.findErr
	}
	id, ok := m.emailIndex[email]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return m.identities[id].Clone(), nil
}

func (m *mockIdentityStore) Save(ctx context.Context, identity *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++

	if m.saveErr != nil {
		return m.saveErr
	}
	if owner, ok := m.emailIndex[identity.Email]; ok && owner != identity.ID {
		return ErrEmailTaken
	}
	if previous, ok := m.identities[identity.ID]; ok && previous.Email != identity.Email {
		delete(m.emailIndex, previous.Email)
	}
	m.identities[identity.ID] = identity.Clone()
	m.emailIndex[identity.Email] = identity.ID
	return nil
}

func (m *mockIdentityStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++

	if m.deleteErr != nil {
		return m.deleteErr
	}
	identity, ok := m.identities[id]
	if !ok {
		return ErrIdentityNotFound
	}
	delete(m.emailIndex, identity.Email)
	delete(m.identities, id)
	return nil
}

// get returns the stored record without counting as a lookup.
func (m *mockIdentityStore) get(id string) *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identities[id]
}

// testClock is a mutable time source shared between the engine and its codec.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()

	h, err := password.New(password.Config{Cost: 4})
	if err != nil {
		t.Fatalf("password.New failed: %v", err)
	}
	return h
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

// newTestEngine builds a full engine against the mock store with a low-cost
// hasher and a controllable clock. Options tweak the builder before Build.
func newTestEngine(t *testing.T, store IdentityStore, opts ...func(*Builder)) (*Engine, *testClock) {
	t.Helper()

	clock := newTestClock()
	cfg := defaultConfig()
	cfg.Password.Cost = 4

	b := New().WithConfig(cfg).WithStore(store).WithClock(clock.Now)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}

// seedIdentity stores an active user account with the given plaintext
// credential and returns the stored record.
func seedIdentity(t *testing.T, store *mockIdentityStore, email, plaintext string) *Identity {
	t.Helper()

	digest, err := newTestHasher(t).Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	identity := &Identity{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Seeded Account",
		Role:         RoleUser,
		Active:       true,
		PasswordHash: digest,
	}
	if err := store.Save(context.Background(), identity); err != nil {
		t.Fatalf("seed Save failed: %v", err)
	}
	store.saveCalls = 0
	return identity
}
