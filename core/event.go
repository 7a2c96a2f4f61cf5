package core

// EventKind identifies the type of a realtime event.
type EventKind string

const (
	EventNewMessage        EventKind = "NEW_MESSAGE"
	EventEditMessage       EventKind = "EDIT_MESSAGE"
	EventDeleteMessage     EventKind = "DELETE_MESSAGE"
	EventNewConnection     EventKind = "NEW_CONNECTION"
	EventSessionTerminated EventKind = "SESSION_TERMINATED"
)

// Event is a transient payload pushed to a live channel. It is
// delivered-or-dropped and never persisted.
type Event struct {
	Kind EventKind `json:"type"`
	Data any       `json:"data,omitempty"`
}

// NewMessageEvent wraps a freshly stored message.
func NewMessageEvent(msg *Message) Event {
	return Event{Kind: EventNewMessage, Data: msg}
}

// EditMessageEvent wraps an edited message.
func EditMessageEvent(msg *Message) Event {
	return Event{Kind: EventEditMessage, Data: msg}
}

// DeleteMessageEvent carries only the id of the deleted message.
func DeleteMessageEvent(messageID string) Event {
	return Event{Kind: EventDeleteMessage, Data: map[string]string{"message_id": messageID}}
}

// NewConnectionEvent notifies the counterparty of a new connection.
func NewConnectionEvent(conn *Connection) Event {
	return Event{Kind: EventNewConnection, Data: conn}
}

// SessionTerminatedEvent tells an evicted channel why it is being closed.
func SessionTerminatedEvent(reason string) Event {
	return Event{Kind: EventSessionTerminated, Data: map[string]string{"reason": reason}}
}
