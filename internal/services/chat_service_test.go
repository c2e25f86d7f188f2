package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sangamlabs/sangam/internal/database/testutil"
)

func TestSendAndConversationOrdering(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewChatService(db, nil)
	require.NoError(t, err)

	ravi := createTestUser(t, db, "Ravi", "9000000001")
	asha := createTestUser(t, db, "Asha", "9000000002")
	ctx := context.Background()

	_, err = svc.Send(ctx, ravi.ID, asha.ID, "hello", "")
	require.NoError(t, err)
	_, err = svc.Send(ctx, asha.ID, ravi.ID, "hi there", "")
	require.NoError(t, err)

	conversation, err := svc.Conversation(ctx, ravi.ID, asha.ID)
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	require.Equal(t, "hello", conversation[0].Text)
	require.Equal(t, "hi there", conversation[1].Text)
}

func TestSendRejectsEmptyAndSelfMessages(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewChatService(db, nil)
	require.NoError(t, err)

	ravi := createTestUser(t, db, "Ravi", "9000000001")
	asha := createTestUser(t, db, "Asha", "9000000002")
	ctx := context.Background()

	_, err = svc.Send(ctx, ravi.ID, ravi.ID, "hello", "")
	require.Error(t, err)

	_, err = svc.Send(ctx, ravi.ID, asha.ID, "  ", "")
	require.Error(t, err)

	// Attachment-only messages are allowed.
	_, err = svc.Send(ctx, ravi.ID, asha.ID, "", "/uploads/photo.jpg")
	require.NoError(t, err)
}

func TestMarkConversationReadAndUnreadCount(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewChatService(db, nil)
	require.NoError(t, err)

	ravi := createTestUser(t, db, "Ravi", "9000000001")
	asha := createTestUser(t, db, "Asha", "9000000002")
	ctx := context.Background()

	_, err = svc.Send(ctx, ravi.ID, asha.ID, "one", "")
	require.NoError(t, err)
	_, err = svc.Send(ctx, ravi.ID, asha.ID, "two", "")
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, asha.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	marked, err := svc.MarkConversationRead(ctx, asha.ID, ravi.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, marked)

	count, err = svc.UnreadCount(ctx, asha.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	// Ravi's own side is untouched.
	count, err = svc.UnreadCount(ctx, ravi.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
