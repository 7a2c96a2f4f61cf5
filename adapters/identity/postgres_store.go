package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

const pgUniqueViolation = "23505"

// PostgresStore implements the IdentityStore interface on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed identity store.
func NewPostgresStore(pool *pgxpool.Pool) ports.IdentityStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new identity in the Unverified state.
func (s *PostgresStore) Create(ctx context.Context, email, passwordHash string) (*core.Identity, error) {
	id := uuid.New().String()

	ident := &core.Identity{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		State:        core.StateUnverified,
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO identities (id, email, password_hash, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		id, email, passwordHash, core.StateUnverified,
	).Scan(&ident.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, core.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	return ident, nil
}

// ByEmail looks up an identity by email.
func (s *PostgresStore) ByEmail(ctx context.Context, email string) (*core.Identity, error) {
	return s.get(ctx,
		`SELECT id, email, password_hash, status, created_at FROM identities WHERE email = $1`,
		email)
}

// ByID looks up an identity by id.
func (s *PostgresStore) ByID(ctx context.Context, id string) (*core.Identity, error) {
	return s.get(ctx,
		`SELECT id, email, password_hash, status, created_at FROM identities WHERE id = $1`,
		id)
}

// MarkVerified transitions an identity to the Verified state.
func (s *PostgresStore) MarkVerified(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE identities SET status = $1 WHERE email = $2`,
		core.StateVerified, email)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) get(ctx context.Context, query, arg string) (*core.Identity, error) {
	var ident core.Identity
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&ident.ID, &ident.Email, &ident.PasswordHash, &ident.State, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}
	return &ident, nil
}
