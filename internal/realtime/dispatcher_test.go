package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToAllConnections(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	phone := &fakeConn{}
	laptop := &fakeConn{}
	registry.Register(phone, "user-1", false)
	registry.Register(laptop, "user-1", false)

	dispatcher.SendToUser("user-1", NotificationEvent("New Interest"))

	require.Len(t, phone.received(), 1)
	require.Len(t, laptop.received(), 1)
	require.Equal(t, EventNewNotification, phone.received()[0].Type)
}

func TestDispatcherPrunesFailedConnection(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	healthy := &fakeConn{}
	broken := &fakeConn{fail: true}
	registry.Register(healthy, "user-1", false)
	registry.Register(broken, "user-1", false)

	dispatcher.SendToUser("user-1", NotificationEvent("hello"))

	// The healthy sibling still received the event.
	require.Len(t, healthy.received(), 1)

	// The broken connection is gone and closed.
	require.True(t, broken.closed)
	require.Len(t, registry.Connections("user-1"), 1)

	// A second dispatch only reaches the survivor.
	dispatcher.SendToUser("user-1", NotificationEvent("again"))
	require.Len(t, healthy.received(), 2)
	require.Empty(t, broken.received())
}

func TestDispatcherDropsWhenNoConnections(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	// Must not panic or block for unknown subjects.
	dispatcher.SendToUser("ghost", NotificationEvent("dropped"))
	dispatcher.BroadcastToAdmins(AdminEvent(EventUserRegistered, "u-1", "Asha", nil))
}

func TestDispatcherBroadcastsToAdmins(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	ops := &fakeConn{}
	stale := &fakeConn{fail: true}
	registry.Register(ops, "admin-1", true)
	registry.Register(stale, "admin-2", true)

	dispatcher.BroadcastToAdmins(AdminEvent(EventPaymentCompleted, "user-9", "Ravi", map[string]any{"plan": "gold"}))

	events := ops.received()
	require.Len(t, events, 1)
	require.Equal(t, EventPaymentCompleted, events[0].Type)
	require.Equal(t, "Ravi", events[0].ActorName)
	require.NotEmpty(t, events[0].Timestamp)

	require.True(t, stale.closed)
	require.Len(t, registry.AdminConnections(), 1)
}
