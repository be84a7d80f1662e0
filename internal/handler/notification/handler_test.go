package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository/mocks"
	"github.com/jwalitptl/appointment-api/internal/service/notification"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/httputil"
)

func setup(caller *model.UserContext) (*gin.Engine, *mocks.NotificationRepository) {
	gin.SetMode(gin.TestMode)
	repo := &mocks.NotificationRepository{}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if caller != nil {
			c.Set(middleware.ContextUser, caller)
		}
		c.Next()
	})
	NewHandler(notification.NewInbox(repo)).RegisterRoutes(r.Group("/api/v1"))
	return r, repo
}

func serve(r *gin.Engine, method, path string) (*httptest.ResponseRecorder, httputil.Response) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var resp httputil.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestListNotifications(t *testing.T) {
	caller := &model.UserContext{UserID: uuid.New(), Role: model.RoleClient}
	r, repo := setup(caller)

	repo.On("ListByUser", mock.Anything, caller.UserID, model.Pagination{Page: 1, PageSize: 20}).
		Return([]*model.Notification{{Title: "Appointment approved"}}, 1, nil)

	w, resp := serve(r, http.MethodGet, "/api/v1/notifications?page_size=500")

	require.Equal(t, http.StatusOK, w.Code)
	body := resp.Data.(map[string]interface{})
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Appointment approved", items[0].(map[string]interface{})["title"])
	repo.AssertExpectations(t)
}

func TestListNotifications_Unauthenticated(t *testing.T) {
	r, repo := setup(nil)

	w, _ := serve(r, http.MethodGet, "/api/v1/notifications")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkRead(t *testing.T) {
	caller := &model.UserContext{UserID: uuid.New(), Role: model.RoleProvider}
	r, repo := setup(caller)
	mine, theirs := uuid.New(), uuid.New()

	repo.On("MarkRead", mock.Anything, mine, caller.UserID).Return(nil)
	repo.On("MarkRead", mock.Anything, theirs, caller.UserID).Return(errors.NewNotFound("notification", nil))

	w, _ := serve(r, http.MethodPatch, "/api/v1/notifications/"+mine.String()+"/read")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := serve(r, http.MethodPatch, "/api/v1/notifications/"+theirs.String()+"/read")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "notification not found", resp.Message)

	w, _ = serve(r, http.MethodPatch, "/api/v1/notifications/abc/read")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertExpectations(t)
}
