package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
	"github.com/duetchat/duet/realtime"
)

// ChatHandlers provides the HTTP handlers for messages and connections.
// After a successful write the matching event is routed to the counterparty;
// a miss means the recipient is offline and is not an error.
type ChatHandlers struct {
	identities  ports.IdentityStore
	messages    ports.MessageStore
	connections ports.ConnectionStore
	router      *realtime.Router
}

// NewChatHandlers creates handlers for the chat endpoints.
func NewChatHandlers(
	identities ports.IdentityStore,
	messages ports.MessageStore,
	connections ports.ConnectionStore,
	router *realtime.Router,
) *ChatHandlers {
	return &ChatHandlers{
		identities:  identities,
		messages:    messages,
		connections: connections,
		router:      router,
	}
}

// SendMessageRequest represents a send-message request
type SendMessageRequest struct {
	ReceiverID string  `json:"receiver_id" binding:"required"`
	Content    string  `json:"content" binding:"required"`
	FileID     *string `json:"file_id"`
}

// EditMessageRequest represents an edit-message request
type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateConnectionRequest represents a connection request
type CreateConnectionRequest struct {
	ConnectedUserID string `json:"connected_user_id" binding:"required"`
}

// SendMessage handles message creation.
func (h *ChatHandlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	senderID, _ := identityFrom(c)

	receiver, err := h.identities.ByID(c.Request.Context(), req.ReceiverID)
	if err != nil || !receiver.Verified() {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found or unverified"})
		return
	}

	msg, err := h.messages.Insert(c.Request.Context(), senderID, req.ReceiverID, req.Content, req.FileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.router.Deliver(req.ReceiverID, core.NewMessageEvent(msg))

	c.JSON(http.StatusCreated, gin.H{"data": msg})
}

// History handles message history between the caller and another identity.
func (h *ChatHandlers) History(c *gin.Context) {
	userID, _ := identityFrom(c)
	otherID := c.Param("userId")

	msgs, err := h.messages.History(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// EditMessage handles message edits by the original sender.
func (h *ChatHandlers) EditMessage(c *gin.Context) {
	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, _ := identityFrom(c)

	msg, err := h.messages.Edit(c.Request.Context(), c.Param("messageId"), userID, req.Content)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized or not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.router.Deliver(msg.ReceiverID, core.EditMessageEvent(msg))

	c.JSON(http.StatusOK, gin.H{"data": msg})
}

// DeleteMessage handles soft deletion by the original sender.
func (h *ChatHandlers) DeleteMessage(c *gin.Context) {
	userID, _ := identityFrom(c)

	msg, err := h.messages.SoftDelete(c.Request.Context(), c.Param("messageId"), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized or not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	h.router.Deliver(msg.ReceiverID, core.DeleteMessageEvent(msg.ID))

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// CreateConnection handles connection creation between two identities.
func (h *ChatHandlers) CreateConnection(c *gin.Context) {
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, email := identityFrom(c)

	if userID == req.ConnectedUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot connect to yourself"})
		return
	}

	other, err := h.identities.ByID(c.Request.Context(), req.ConnectedUserID)
	if err != nil || !other.Verified() {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found or unverified"})
		return
	}

	if err := h.connections.Create(c.Request.Context(), userID, req.ConnectedUserID); err != nil {
		if errors.Is(err, core.ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "connection already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create connection"})
		return
	}

	h.router.Deliver(req.ConnectedUserID, core.NewConnectionEvent(&core.Connection{
		ConnectedUserID: userID,
		Email:           email,
		State:           core.StateVerified,
	}))

	c.JSON(http.StatusCreated, gin.H{"message": "connection created"})
}

// DeleteConnection removes the connection between the caller and another
// identity. The counterparty id identifies the connection; the store only
// matches rows involving the caller.
func (h *ChatHandlers) DeleteConnection(c *gin.Context) {
	userID, _ := identityFrom(c)

	if err := h.connections.Delete(c.Request.Context(), userID, c.Param("userId")); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete connection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "connection removed"})
}

// ListConnections handles listing the caller's connections.
func (h *ChatHandlers) ListConnections(c *gin.Context) {
	userID, _ := identityFrom(c)

	conns, err := h.connections.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list connections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": conns})
}
