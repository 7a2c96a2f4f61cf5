package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

// PostgresMessageStore implements the MessageStore interface on a pgx pool.
type PostgresMessageStore struct {
	pool *pgxpool.Pool
}

// NewPostgresMessageStore creates a new Postgres-backed message store.
func NewPostgresMessageStore(pool *pgxpool.Pool) ports.MessageStore {
	return &PostgresMessageStore{pool: pool}
}

const messageColumns = `id, sender_id, receiver_id, content, file_id, is_deleted, created_at, updated_at`

// Insert stores a new message.
func (s *PostgresMessageStore) Insert(ctx context.Context, senderID, receiverID, content string, fileID *string) (*core.Message, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO messages (sender_id, receiver_id, content, file_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+messageColumns,
		senderID, receiverID, content, fileID)

	msg, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// History returns all non-deleted messages between two identities, oldest first.
func (s *PostgresMessageStore) History(ctx context.Context, userID, otherID string) ([]core.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages
		 WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		   AND is_deleted = false
		 ORDER BY created_at ASC`,
		userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *msg)
	}
	return out, rows.Err()
}

// Edit updates the content of a message owned by senderID.
func (s *PostgresMessageStore) Edit(ctx context.Context, messageID, senderID, content string) (*core.Message, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE messages SET content = $1, updated_at = now()
		 WHERE id = $2 AND sender_id = $3 AND is_deleted = false
		 RETURNING `+messageColumns,
		content, messageID, senderID)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("edit message: %w", err)
	}
	return msg, nil
}

// SoftDelete marks a message owned by senderID as deleted.
func (s *PostgresMessageStore) SoftDelete(ctx context.Context, messageID, senderID string) (*core.Message, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE messages SET is_deleted = true
		 WHERE id = $1 AND sender_id = $2
		 RETURNING `+messageColumns,
		messageID, senderID)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("delete message: %w", err)
	}
	return msg, nil
}

func scanMessage(row pgx.Row) (*core.Message, error) {
	var msg core.Message
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content,
		&msg.FileID, &msg.IsDeleted, &msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
