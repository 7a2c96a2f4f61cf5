package chat

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

// PostgresConnectionStore implements the ConnectionStore interface on a pgx pool.
type PostgresConnectionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresConnectionStore creates a new Postgres-backed connection store.
func NewPostgresConnectionStore(pool *pgxpool.Pool) ports.ConnectionStore {
	return &PostgresConnectionStore{pool: pool}
}

// Create inserts both directions of a connection inside one transaction.
func (s *PostgresConnectionStore) Create(ctx context.Context, userID, connectedUserID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM connections
		   WHERE (user_id = $1 AND connected_user_id = $2)
		      OR (user_id = $2 AND connected_user_id = $1)
		 )`,
		userID, connectedUserID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check connection: %w", err)
	}
	if exists {
		return core.ErrAlreadyExists
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO connections (user_id, connected_user_id) VALUES ($1, $2), ($2, $1)`,
		userID, connectedUserID)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}

	return tx.Commit(ctx)
}

// Delete removes both directions of a connection. Only rows involving
// userID match, so a caller can never remove someone else's connection.
func (s *PostgresConnectionStore) Delete(ctx context.Context, userID, connectedUserID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM connections
		 WHERE (user_id = $1 AND connected_user_id = $2)
		    OR (user_id = $2 AND connected_user_id = $1)`,
		userID, connectedUserID)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// List returns the connections of an identity with counterparty email and state.
func (s *PostgresConnectionStore) List(ctx context.Context, userID string) ([]core.Connection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.connected_user_id, i.email, i.status
		 FROM connections c
		 JOIN identities i ON i.id = c.connected_user_id
		 WHERE c.user_id = $1
		 ORDER BY i.email ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	var out []core.Connection
	for rows.Next() {
		var conn core.Connection
		if err := rows.Scan(&conn.ConnectedUserID, &conn.Email, &conn.State); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, conn)
	}
	return out, rows.Err()
}
