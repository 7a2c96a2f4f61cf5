package core

import "time"

// Message is a stored chat message between two identities. FileID, when set,
// references an uploaded file managed outside this service.
type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	Content    string     `json:"content"`
	FileID     *string    `json:"file_id,omitempty"`
	IsDeleted  bool       `json:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Connection is one direction of a mutual connection between two identities.
type Connection struct {
	ConnectedUserID string            `json:"connected_user_id"`
	Email           string            `json:"email"`
	State           VerificationState `json:"status"`
}
