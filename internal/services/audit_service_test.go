package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sangamlabs/sangam/internal/database/testutil"
	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/realtime"
)

type recordingConn struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (c *recordingConn) Send(event realtime.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) snapshot() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Event(nil), c.events...)
}

func TestRecordPersistsAndBroadcasts(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry)
	admin := &recordingConn{}
	registry.Register(admin, "admin-1", true)

	svc, err := NewAuditService(db, dispatcher)
	require.NoError(t, err)

	err = svc.Record(context.Background(), AuditEntry{
		Action:    realtime.EventUserRegistered,
		ActorID:   "user-1",
		ActorName: "Asha",
		Metadata:  map[string]any{"phone": "9000000001"},
	})
	require.NoError(t, err)

	var rows []models.AuditLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, realtime.EventUserRegistered, rows[0].Action)
	require.NotNil(t, rows[0].ActorID)
	require.Equal(t, "user-1", *rows[0].ActorID)

	events := admin.snapshot()
	require.Len(t, events, 1)
	require.Equal(t, realtime.EventUserRegistered, events[0].Type)
	require.Equal(t, "Asha", events[0].ActorName)
	require.NotEmpty(t, events[0].Timestamp)
}

func TestListReturnsNewestFirst(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Record(ctx, AuditEntry{Action: "user_registered", ActorName: "First"}))
	require.NoError(t, svc.Record(ctx, AuditEntry{Action: "payment_completed", ActorName: "Second"}))

	rows, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Second", rows[0].ActorName)
}
