package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/service/access"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/httputil"
	"github.com/jwalitptl/appointment-api/pkg/metrics"
)

type stored struct {
	owners []uuid.UUID
	data   model.JSONMap
}

type fakeAccessor struct {
	items   map[uuid.UUID]stored
	deleted []uuid.UUID
}

func (f *fakeAccessor) Owners(_ context.Context, r access.Resource, id uuid.UUID) ([]uuid.UUID, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, errors.NewNotFound(string(r), nil)
	}
	return it.owners, nil
}

func (f *fakeAccessor) Read(_ context.Context, _ access.Resource, id uuid.UUID) (model.JSONMap, error) {
	out := model.JSONMap{}
	for k, v := range f.items[id].data {
		out[k] = v
	}
	return out, nil
}

func (f *fakeAccessor) Update(ctx context.Context, r access.Resource, id uuid.UUID, fields model.JSONMap) (model.JSONMap, error) {
	it := f.items[id]
	for k, v := range fields {
		it.data[k] = v
	}
	return f.Read(ctx, r, id)
}

func (f *fakeAccessor) Delete(_ context.Context, _ access.Resource, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fixture struct {
	router   *gin.Engine
	accessor *fakeAccessor
	log      *access.Log
	caller   *model.UserContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		accessor: &fakeAccessor{items: map[uuid.UUID]stored{}},
		log:      access.NewLog(100),
	}
	proxy := access.NewProxy(f.accessor, access.DefaultPolicy(), f.log, metrics.NewNop(), zerolog.Nop())

	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		if f.caller != nil {
			c.Set(middleware.ContextUser, f.caller)
		}
		c.Next()
	})
	NewHandler(proxy).RegisterRoutes(f.router.Group("/api/v1"))
	return f
}

func (f *fixture) do(method, path, body string) (*httptest.ResponseRecorder, httputil.Response) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp httputil.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func user(id uuid.UUID) model.JSONMap {
	return model.JSONMap{
		"id":            id.String(),
		"name":          "Ana",
		"email":         "ana@example.com",
		"phone":         "555-0100",
		"role":          "client",
		"password_hash": "$2a$hash",
	}
}

func TestReadOwnUser(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.accessor.items[id] = stored{owners: []uuid.UUID{id}, data: user(id)}
	f.caller = &model.UserContext{UserID: id, Role: model.RoleClient}

	w, resp := f.do(http.MethodGet, "/api/v1/users/"+id.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ana@example.com", data["email"])
	assert.NotContains(t, data, "password_hash")
	assert.Equal(t, 1, f.log.Len())
}

func TestReadOtherUser_Denied(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.accessor.items[id] = stored{owners: []uuid.UUID{id}, data: user(id)}
	f.caller = &model.UserContext{UserID: uuid.New(), Role: model.RoleClient}

	w, resp := f.do(http.MethodGet, "/api/v1/users/"+id.String(), "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access denied", resp.Message)

	entries := f.log.Entries(model.AccessLogFilter{})
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "user:read", entries[0].Operation)
}

func TestUnauthenticated(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(http.MethodGet, "/api/v1/medical-records/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateOwnUser_StripsProtectedFields(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.accessor.items[id] = stored{owners: []uuid.UUID{id}, data: user(id)}
	f.caller = &model.UserContext{UserID: id, Role: model.RoleClient}

	w, resp := f.do(http.MethodPatch, "/api/v1/users/"+id.String(), `{"name":"Ana B","role":"admin"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Ana B", data["name"])
	assert.Equal(t, "client", data["role"])
}

func TestUpdate_NothingUpdatable(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.accessor.items[id] = stored{owners: []uuid.UUID{id}, data: user(id)}
	f.caller = &model.UserContext{UserID: id, Role: model.RoleClient}

	w, _ := f.do(http.MethodPatch, "/api/v1/users/"+id.String(), `{"is_blocked":false}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_BodyMustBeObject(t *testing.T) {
	f := newFixture(t)
	f.caller = &model.UserContext{UserID: uuid.New(), Role: model.RoleAdmin}

	w, resp := f.do(http.MethodPatch, "/api/v1/users/"+uuid.NewString(), `["name"]`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body must be a JSON object", resp.Message)
}

func TestDeleteMedicalRecord(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	owner := uuid.New()
	f.accessor.items[id] = stored{owners: []uuid.UUID{owner}, data: model.JSONMap{"id": id.String()}}

	f.caller = &model.UserContext{UserID: owner, Role: model.RoleClient}
	w, _ := f.do(http.MethodDelete, "/api/v1/medical-records/"+id.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.caller = &model.UserContext{UserID: uuid.New(), Role: model.RoleAdmin}
	w, _ = f.do(http.MethodDelete, "/api/v1/medical-records/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []uuid.UUID{id}, f.accessor.deleted)
}

func TestMissingResource(t *testing.T) {
	f := newFixture(t)
	f.caller = &model.UserContext{UserID: uuid.New(), Role: model.RoleAdmin}

	w, _ := f.do(http.MethodGet, "/api/v1/providers/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidID(t *testing.T) {
	f := newFixture(t)
	f.caller = &model.UserContext{UserID: uuid.New(), Role: model.RoleAdmin}

	w, resp := f.do(http.MethodGet, "/api/v1/medical-records/42", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid medical_record ID", resp.Message)
	assert.Zero(t, f.log.Len())
}
