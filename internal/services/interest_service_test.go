package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/database/testutil"
	"github.com/sangamlabs/sangam/internal/models"
)

func newInterestFixture(t *testing.T) (*InterestService, *gorm.DB, *models.User, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	notifier, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	svc, err := NewInterestService(db, notifier, nil)
	require.NoError(t, err)

	sender := createTestUser(t, db, "Ravi", "9000000001")
	receiver := createTestUser(t, db, "Asha", "9000000002")
	return svc, db, sender, receiver
}

func TestSendInterestNotifiesReceiver(t *testing.T) {
	svc, db, sender, receiver := newInterestFixture(t)
	ctx := context.Background()

	interest, err := svc.Send(ctx, sender.ID, receiver.ID)
	require.NoError(t, err)
	require.Equal(t, models.InterestPending, interest.Status)

	rows := notificationsFor(t, db, receiver.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationInterestReceived, rows[0].Type)
	require.Contains(t, rows[0].Message, sender.Name)
}

func TestSendInterestRejectsDuplicatesAndSelf(t *testing.T) {
	svc, _, sender, receiver := newInterestFixture(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, sender.ID, sender.ID)
	require.Error(t, err)

	_, err = svc.Send(ctx, sender.ID, receiver.ID)
	require.NoError(t, err)
	_, err = svc.Send(ctx, sender.ID, receiver.ID)
	require.Error(t, err)
}

func TestUpdateStatusOnlyReceiverMayRespond(t *testing.T) {
	svc, _, sender, receiver := newInterestFixture(t)
	ctx := context.Background()

	interest, err := svc.Send(ctx, sender.ID, receiver.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, interest.ID, sender.ID, models.InterestAccepted)
	require.Error(t, err)

	updated, err := svc.UpdateStatus(ctx, interest.ID, receiver.ID, models.InterestAccepted)
	require.NoError(t, err)
	require.Equal(t, models.InterestAccepted, updated.Status)
}

func TestUpdateStatusAcceptFiresOnceOnTransition(t *testing.T) {
	svc, db, sender, receiver := newInterestFixture(t)
	ctx := context.Background()

	interest, err := svc.Send(ctx, sender.ID, receiver.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, interest.ID, receiver.ID, models.InterestAccepted)
	require.NoError(t, err)
	// Accepting again must not duplicate the notification or the greetings.
	_, err = svc.UpdateStatus(ctx, interest.ID, receiver.ID, models.InterestAccepted)
	require.NoError(t, err)

	accepted := 0
	for _, row := range notificationsFor(t, db, sender.ID) {
		if row.Type == models.NotificationInterestAccepted {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)

	var messages []models.ChatMessage
	require.NoError(t, db.Find(&messages).Error)
	require.Len(t, messages, 2)
}

func TestUpdateStatusDeclineStaysQuiet(t *testing.T) {
	svc, db, sender, receiver := newInterestFixture(t)
	ctx := context.Background()

	interest, err := svc.Send(ctx, sender.ID, receiver.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, interest.ID, receiver.ID, models.InterestDeclined)
	require.NoError(t, err)
	require.Equal(t, models.InterestDeclined, updated.Status)

	require.Empty(t, notificationsFor(t, db, sender.ID))
}

func TestSentAndReceivedListings(t *testing.T) {
	svc, _, sender, receiver := newInterestFixture(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, sender.ID, receiver.ID)
	require.NoError(t, err)

	sent, err := svc.Sent(ctx, sender.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)

	received, err := svc.Received(ctx, receiver.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.Equal(t, sender.ID, received[0].SenderID)
}
