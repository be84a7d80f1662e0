package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/appointment-api/internal/handler/health"
	"github.com/jwalitptl/appointment-api/internal/handler/prometheus"
	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository/mocks"
	"github.com/jwalitptl/appointment-api/pkg/auth"
	"github.com/jwalitptl/appointment-api/pkg/metrics"
)

type whoami struct{}

func (whoami) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, string(middleware.CurrentUser(c).Role))
	})
}

func newTestRouter(t *testing.T) (*Router, *auth.JWTService, *mocks.UserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc := auth.NewJWTService("secret", "clinic", time.Hour)
	users := &mocks.UserRepository{}
	reg := promclient.NewRegistry()

	r := NewRouter(
		RouterConfig{
			CORSConfig:   middleware.DefaultCORSConfig([]string{"https://app.example.com"}),
			MaxBodyBytes: 1 << 10,
		},
		zerolog.Nop(),
		metrics.New("test", reg),
		middleware.NewAuthMiddleware(jwtSvc, users, time.Minute),
		health.NewHandler(nil),
		prometheus.New(reg),
		whoami{},
	)
	r.Setup()
	return r, jwtSvc, users
}

func TestProbesAreUnauthenticated(t *testing.T) {
	r, _, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		w := httptest.NewRecorder()
		r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAPIWithToken(t *testing.T) {
	r, jwtSvc, users := newTestRouter(t)
	user := &model.User{Base: model.Base{ID: uuid.New()}, Role: model.RoleClient}
	users.On("Get", mock.Anything, user.ID).Return(user, nil)

	token, err := jwtSvc.Issue(user.ID, "client")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client", w.Body.String())
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
