package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sangamlabs/sangam/internal/database/testutil"
	"github.com/sangamlabs/sangam/internal/middleware"
	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/response"
)

func newHandlerTestContext(t *testing.T, userID, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	c.Set(middleware.CtxUserIDKey, userID)
	return c, recorder
}

func TestNotificationHandlerListAndMarkRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	notifier, err := services.NewNotificationService(db, nil)
	require.NoError(t, err)
	handler := NewNotificationHandler(notifier)

	user := models.User{
		Name:          "Dana",
		Phone:         "9000000001",
		Password:      "secret",
		Age:           26,
		Height:        5.3,
		Gender:        "female",
		MaritalStatus: "never_married",
		Religion:      "hindu",
		Caste:         "any",
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, notifier.VerificationGranted(context.Background(), user.ID))

	c, recorder := newHandlerTestContext(t, user.ID, "/api/notifications")
	handler.List(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.True(t, payload.Success)

	dataBytes, err := json.Marshal(payload.Data)
	require.NoError(t, err)

	var rows []models.Notification
	require.NoError(t, json.Unmarshal(dataBytes, &rows))
	require.Len(t, rows, 1)

	c2, readRecorder := newHandlerTestContext(t, user.ID, "/api/notifications/"+rows[0].ID+"/read")
	c2.Params = gin.Params{gin.Param{Key: "id", Value: rows[0].ID}}
	handler.MarkRead(c2)
	require.Equal(t, http.StatusOK, readRecorder.Code)

	var readPayload response.Response
	require.NoError(t, json.Unmarshal(readRecorder.Body.Bytes(), &readPayload))
	require.True(t, readPayload.Success)

	readData, err := json.Marshal(readPayload.Data)
	require.NoError(t, err)
	var row models.Notification
	require.NoError(t, json.Unmarshal(readData, &row))
	require.True(t, row.IsRead)
}

func TestNotificationHandlerMarkReadRejectsForeignRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	notifier, err := services.NewNotificationService(db, nil)
	require.NoError(t, err)
	handler := NewNotificationHandler(notifier)

	owner := models.User{
		Name: "Asha", Phone: "9000000001", Password: "x",
		Age: 26, Height: 5.3, Gender: "female",
		MaritalStatus: "never_married", Religion: "hindu", Caste: "any",
	}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, notifier.VerificationGranted(context.Background(), owner.ID))

	var row models.Notification
	require.NoError(t, db.Where("user_id = ?", owner.ID).First(&row).Error)

	c, recorder := newHandlerTestContext(t, "someone-else", "/api/notifications/"+row.ID+"/read")
	c.Params = gin.Params{gin.Param{Key: "id", Value: row.ID}}
	handler.MarkRead(c)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
