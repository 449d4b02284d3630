// Package postgres provides an IdentityStore backed by PostgreSQL via pgx.
//
// Email uniqueness rides on the table's unique constraint, so it holds across
// processes without any coordination in this package.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/varkis-sec/authgate"
)

// Schema creates the identities table. Run it at deploy time, or call
// EnsureSchema from application startup.
const Schema = `
CREATE TABLE IF NOT EXISTS authgate_identities (
    id                  TEXT PRIMARY KEY,
    email               TEXT NOT NULL UNIQUE,
    name                TEXT NOT NULL DEFAULT '',
    role                TEXT NOT NULL,
    active              BOOLEAN NOT NULL DEFAULT TRUE,
    password_hash       TEXT NOT NULL,
    last_login_at       TIMESTAMPTZ,
    password_changed_at TIMESTAMPTZ,
    reset_digest        BYTEA,
    reset_expires_at    TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// querier is the subset of *pgxpool.Pool the store actually uses. Tests swap
// in a pgxmock pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements authgate.IdentityStore on a PostgreSQL backend.
type Store struct {
	db   querier
	pool *pgxpool.Pool
}

// New wraps an existing pool or compatible querier.
func New(db querier) *Store {
	return &Store{db: db}
}

// Connect opens a pool for the given DSN and verifies the connection. The
// returned Store owns the pool; release it with Close.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// Close releases the pool when the Store owns one.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the identities table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure identities schema: %w", err)
	}
	return nil
}

// FindByID returns the identity with the given ID.
func (s *Store) FindByID(ctx context.Context, id string) (*authgate.Identity, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, name, role, active, password_hash,
		       last_login_at, password_changed_at, reset_digest, reset_expires_at,
		       created_at, updated_at
		FROM authgate_identities
		WHERE id = $1
	`, id)

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authgate.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return identity, nil
}

// FindByEmail returns the identity registered under the given email. Emails
// arrive already normalized, so the match is exact.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authgate.Identity, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, name, role, active, password_hash,
		       last_login_at, password_changed_at, reset_digest, reset_expires_at,
		       created_at, updated_at
		FROM authgate_identities
		WHERE email = $1
	`, email)

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authgate.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return identity, nil
}

// Save upserts the whole record. Inserts stamp created_at server-side unless
// the identity already carries one; every write refreshes updated_at.
func (s *Store) Save(ctx context.Context, identity *authgate.Identity) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO authgate_identities (
			id, email, name, role, active, password_hash,
			last_login_at, password_changed_at, reset_digest, reset_expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, now()), now())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			active = EXCLUDED.active,
			password_hash = EXCLUDED.password_hash,
			last_login_at = EXCLUDED.last_login_at,
			password_changed_at = EXCLUDED.password_changed_at,
			reset_digest = EXCLUDED.reset_digest,
			reset_expires_at = EXCLUDED.reset_expires_at,
			updated_at = now()
	`,
		identity.ID,
		identity.Email,
		identity.Name,
		string(identity.Role),
		identity.Active,
		identity.PasswordHash,
		nullableTime(identity.LastLoginAt),
		nullableTime(identity.PasswordChangedAt),
		identity.ResetDigest,
		nullableTime(identity.ResetExpiresAt),
		nullableTime(identity.CreatedAt),
	)
	if err != nil {
		// The id conflict is absorbed by the upsert, so a unique violation
		// can only come from the email constraint.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return authgate.ErrEmailTaken
		}
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// Delete removes the identity row.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM authgate_identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrIdentityNotFound
	}
	return nil
}

// scanIdentity scans a single row. Callers handle pgx.ErrNoRows themselves.
func scanIdentity(row pgx.Row) (*authgate.Identity, error) {
	var (
		identity     authgate.Identity
		role         string
		lastLogin    *time.Time
		pwChanged    *time.Time
		resetExpires *time.Time
	)

	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&role,
		&identity.Active,
		&identity.PasswordHash,
		&lastLogin,
		&pwChanged,
		&identity.ResetDigest,
		&resetExpires,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	identity.Role = authgate.Role(role)
	identity.LastLoginAt = timeValue(lastLogin)
	identity.PasswordChangedAt = timeValue(pwChanged)
	identity.ResetExpiresAt = timeValue(resetExpires)
	return &identity, nil
}

// nullableTime maps the zero time to NULL so absent timestamps stay absent in
// the table.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeValue(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}

var _ authgate.IdentityStore = (*Store)(nil)
