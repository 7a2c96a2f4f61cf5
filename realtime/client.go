package realtime

import (
	"sync"

	"github.com/duetchat/duet/core"
)

// Channel is a live handle to one connected client. Implementations must be
// safe for concurrent use; Send must never block and Close must be
// idempotent.
type Channel interface {
	ID() string
	IdentityID() string
	// Send enqueues an event for delivery. It returns false if the channel
	// is closed or its queue is full; the event is then dropped.
	Send(ev core.Event) bool
	// Close signals the channel to shut down with the given reason.
	Close(reason string)
}

// Client is the in-process side of a websocket channel. Events enqueued via
// Send are drained by the transport's write loop.
//
// The send channel is intentionally never closed so concurrent senders
// cannot panic; done signals shutdown instead.
type Client struct {
	id         string
	identityID string
	send       chan core.Event

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	reason string
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(identityID, channelID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 64
	}
	return &Client{
		id:         channelID,
		identityID: identityID,
		send:       make(chan core.Event, sendQueueSize),
		done:       make(chan struct{}),
	}
}

// ID returns the channel identifier.
func (c *Client) ID() string { return c.id }

// IdentityID returns the identity bound to this channel.
func (c *Client) IdentityID() string { return c.identityID }

// Send enqueues an event without blocking. A full queue or a closed client
// drops the event and returns false.
func (c *Client) Send(ev core.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Events exposes the outbound queue to the transport write loop.
func (c *Client) Events() <-chan core.Event { return c.send }

// Done returns a channel that is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close signals shutdown with a reason (idempotent). It does NOT close the
// send queue, keeping concurrent Send calls safe.
func (c *Client) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
	})
}

// CloseReason returns the reason recorded by the first Close call.
func (c *Client) CloseReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}
