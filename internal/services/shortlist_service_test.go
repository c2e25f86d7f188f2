package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sangamlabs/sangam/internal/database/testutil"
)

func TestShortlistToggleAddsThenRemoves(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewShortlistService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db, "Ravi", "9000000001")
	target := createTestUser(t, db, "Asha", "9000000002")
	ctx := context.Background()

	shortlisted, err := svc.Toggle(ctx, user.ID, target.ID)
	require.NoError(t, err)
	require.True(t, shortlisted)

	listed, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, target.ID, listed[0].ID)

	shortlisted, err = svc.Toggle(ctx, user.ID, target.ID)
	require.NoError(t, err)
	require.False(t, shortlisted)

	listed, err = svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestShortlistRejectsSelf(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewShortlistService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db, "Ravi", "9000000001")

	_, err = svc.Toggle(context.Background(), user.ID, user.ID)
	require.Error(t, err)
}
