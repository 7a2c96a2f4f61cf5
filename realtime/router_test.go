package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetchat/duet/core"
)

func TestRouter_DeliverOffline(t *testing.T) {
	registry := NewRegistry(testLogger(), nil, nil)
	router := NewRouter(testLogger(), registry)

	delivered := router.Deliver("user-1", core.SessionTerminatedEvent("test"))
	assert.False(t, delivered)
}

func TestRouter_DeliverToBoundChannel(t *testing.T) {
	registry := NewRegistry(testLogger(), nil, nil)
	router := NewRouter(testLogger(), registry)

	ch := newFakeChannel("user-1", "chan-a")
	registry.Bind("user-1", ch)

	msg := &core.Message{ID: "m-1", SenderID: "user-2", ReceiverID: "user-1", Content: "hi"}
	delivered := router.Deliver("user-1", core.NewMessageEvent(msg))
	require.True(t, delivered)

	require.Len(t, ch.events, 1)
	assert.Equal(t, core.EventNewMessage, ch.events[0].Kind)
}

func TestRouter_DeliverPreservesOrder(t *testing.T) {
	registry := NewRegistry(testLogger(), nil, nil)
	router := NewRouter(testLogger(), registry)

	ch := newFakeChannel("user-1", "chan-a")
	registry.Bind("user-1", ch)

	router.Deliver("user-1", core.NewMessageEvent(&core.Message{ID: "m-1"}))
	router.Deliver("user-1", core.EditMessageEvent(&core.Message{ID: "m-1"}))
	router.Deliver("user-1", core.DeleteMessageEvent("m-1"))

	require.Len(t, ch.events, 3)
	assert.Equal(t, core.EventNewMessage, ch.events[0].Kind)
	assert.Equal(t, core.EventEditMessage, ch.events[1].Kind)
	assert.Equal(t, core.EventDeleteMessage, ch.events[2].Kind)
}

func TestRouter_DeliverToClosedChannel(t *testing.T) {
	registry := NewRegistry(testLogger(), nil, nil)
	router := NewRouter(testLogger(), registry)

	ch := newFakeChannel("user-1", "chan-a")
	registry.Bind("user-1", ch)
	ch.Close("gone")

	delivered := router.Deliver("user-1", core.DeleteMessageEvent("m-1"))
	assert.False(t, delivered)
}
