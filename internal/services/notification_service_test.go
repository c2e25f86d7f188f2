package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/database/testutil"
	"github.com/sangamlabs/sangam/internal/models"
)

func createTestUser(t *testing.T, db *gorm.DB, name, phone string) *models.User {
	t.Helper()

	user := &models.User{
		Name:          name,
		Phone:         phone,
		Password:      "hashed",
		Age:           27,
		Height:        5.5,
		Gender:        "female",
		MaritalStatus: "never_married",
		Religion:      "hindu",
		Caste:         "any",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func notificationsFor(t *testing.T, db *gorm.DB, userID string) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestProfileViewedDeduplicatesUnread(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "Asha", "9000000001")
	viewer := createTestUser(t, db, "Ravi", "9000000002")

	ctx := context.Background()
	require.NoError(t, svc.ProfileViewed(ctx, owner.ID, viewer.ID, viewer.Name))
	require.NoError(t, svc.ProfileViewed(ctx, owner.ID, viewer.ID, viewer.Name))
	require.NoError(t, svc.ProfileViewed(ctx, owner.ID, viewer.ID, viewer.Name))

	rows := notificationsFor(t, db, owner.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationProfileView, rows[0].Type)
	require.NotNil(t, rows[0].RelatedUserID)
	require.Equal(t, viewer.ID, *rows[0].RelatedUserID)

	// Every view counts even when the notification is suppressed.
	var got models.User
	require.NoError(t, db.Where("id = ?", owner.ID).First(&got).Error)
	require.Equal(t, 3, got.ViewCount)
}

func TestProfileViewedNotifiesAgainAfterRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "Asha", "9000000001")
	viewer := createTestUser(t, db, "Ravi", "9000000002")

	ctx := context.Background()
	require.NoError(t, svc.ProfileViewed(ctx, owner.ID, viewer.ID, viewer.Name))
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ?", owner.ID).
		Update("is_read", true).Error)
	require.NoError(t, svc.ProfileViewed(ctx, owner.ID, viewer.ID, viewer.Name))

	require.Len(t, notificationsFor(t, db, owner.ID), 2)
}

func TestProfileViewedIgnoresSelfView(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "Asha", "9000000001")

	require.NoError(t, svc.ProfileViewed(context.Background(), owner.ID, owner.ID, owner.Name))

	require.Empty(t, notificationsFor(t, db, owner.ID))
	var got models.User
	require.NoError(t, db.Where("id = ?", owner.ID).First(&got).Error)
	require.Zero(t, got.ViewCount)
}

func TestInterestAcceptedSeedsGreetings(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	sender := createTestUser(t, db, "Ravi", "9000000001")
	receiver := createTestUser(t, db, "Asha", "9000000002")

	interest := &models.Interest{SenderID: sender.ID, ReceiverID: receiver.ID, Status: models.InterestAccepted}
	require.NoError(t, db.Create(interest).Error)

	require.NoError(t, svc.InterestAccepted(context.Background(), interest, receiver.Name))

	rows := notificationsFor(t, db, sender.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationInterestAccepted, rows[0].Type)
	require.Contains(t, rows[0].Message, receiver.Name)

	var messages []models.ChatMessage
	require.NoError(t, db.Order("created_at ASC").Find(&messages).Error)
	require.Len(t, messages, 2)
	require.Equal(t, receiver.ID, messages[0].SenderID)
	require.Equal(t, sender.ID, messages[0].ReceiverID)
	require.Equal(t, sender.ID, messages[1].SenderID)
	require.Equal(t, receiver.ID, messages[1].ReceiverID)
}

func TestVerificationRevokedDeletesGrantNotification(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db, "Asha", "9000000001")
	ctx := context.Background()

	require.NoError(t, svc.VerificationGranted(ctx, user.ID))
	require.Len(t, notificationsFor(t, db, user.ID), 1)

	require.NoError(t, svc.VerificationRevoked(ctx, user.ID))
	require.Empty(t, notificationsFor(t, db, user.ID))
}

func TestPremiumActivatedDeduplicatesUnread(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db, "Asha", "9000000001")
	ctx := context.Background()

	require.NoError(t, svc.PremiumActivated(ctx, user.ID))
	require.NoError(t, svc.PremiumActivated(ctx, user.ID))

	rows := notificationsFor(t, db, user.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationPremiumMembership, rows[0].Type)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "Asha", "9000000001")
	other := createTestUser(t, db, "Ravi", "9000000002")
	ctx := context.Background()

	require.NoError(t, svc.VerificationGranted(ctx, owner.ID))
	rows := notificationsFor(t, db, owner.ID)
	require.Len(t, rows, 1)

	_, err = svc.MarkRead(ctx, other.ID, rows[0].ID)
	require.Error(t, err)

	updated, err := svc.MarkRead(ctx, owner.ID, rows[0].ID)
	require.NoError(t, err)
	require.True(t, updated.IsRead)
}

func TestUnreadProfileViewIndexBlocksDuplicates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "Asha", "9000000001")
	viewer := createTestUser(t, db, "Ravi", "9000000002")
	ctx := context.Background()

	require.NoError(t, svc.ProfileViewed(ctx, owner.ID, viewer.ID, viewer.Name))

	// A raced duplicate that slips past the in-transaction check is rejected
	// by the partial unique index.
	dup := models.Notification{
		UserID:        owner.ID,
		Type:          models.NotificationProfileView,
		Title:         "Profile Viewed",
		Message:       "Ravi viewed your profile",
		RelatedUserID: &viewer.ID,
	}
	require.Error(t, db.Create(&dup).Error)
	require.Len(t, notificationsFor(t, db, owner.ID), 1)

	// Reading the notification frees the slot for the next view.
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ?", owner.ID).
		Update("is_read", true).Error)
	require.NoError(t, svc.ProfileViewed(ctx, owner.ID, viewer.ID, viewer.Name))
	require.Len(t, notificationsFor(t, db, owner.ID), 2)
}

func TestListForUserNewestFirstWithLimit(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db, "Asha", "9000000001")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.ExpiryReminder(ctx, nil, user.ID, "7d")
		require.NoError(t, err)
	}

	rows, err := svc.ListForUser(ctx, user.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
