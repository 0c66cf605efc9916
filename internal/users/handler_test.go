package users

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
)

func newTestRouter(t *testing.T, svc *Service, caller authz.Principal) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), caller)))
		})
	})
	NewHandler(nil, svc, rbac.Middleware{Engine: svc.engine}).MountRoutes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) httpx.ErrorBody {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHandlerCreateUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	anon := actorWithRole(t, svc, "", authz.RoleAnonymous)

	rr := doJSON(t, newTestRouter(t, svc, anon), http.MethodPost, "/users", validInput("ryan"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ryan", body["username"])
	assert.Equal(t, []any{authz.ReadActivationToken}, body["features"])
	assert.Nil(t, body["notes"])
	assert.NotContains(t, body, "password")
}

func TestHandlerCreateUserForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)
	customer := actorWithRole(t, svc, "cust", authz.RoleCustomer)

	rr := doJSON(t, newTestRouter(t, svc, customer), http.MethodPost, "/users", validInput("ryan"))
	require.Equal(t, http.StatusForbidden, rr.Code)

	body := decodeError(t, rr)
	assert.Equal(t, "ForbiddenError", body.Name)
	assert.Equal(t, http.StatusForbidden, body.StatusCode)
	assert.Contains(t, body.Action, authz.CreateUser)
}

func TestHandlerGetUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := seedUser(t, svc, "alice", authz.RoleCustomer)
	seedUser(t, svc, "bob", authz.RoleCustomer)
	h := newTestRouter(t, svc, alice)

	rr := doJSON(t, h, http.MethodGet, "/users/Alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/users/bob", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, decodeError(t, rr).Action, authz.ReadUser+":others")

	rr = doJSON(t, h, http.MethodGet, "/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NotFoundError", decodeError(t, rr).Name)
}

func TestHandlerAnonymousCannotReadUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedUser(t, svc, "alice", authz.RoleCustomer)
	anon := actorWithRole(t, svc, "", authz.RoleAnonymous)

	rr := doJSON(t, newTestRouter(t, svc, anon), http.MethodGet, "/users/alice", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, decodeError(t, rr).Action, authz.ReadUser)
}

func TestHandlerPatchUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	alice := seedUser(t, svc, "alice", authz.RoleCustomer)
	h := newTestRouter(t, svc, alice)

	rr := doJSON(t, h, http.MethodPatch, "/users/alice", map[string]any{"phone": "555"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodPatch, "/users/alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPatch, "/users/alice", map[string]any{"features": []string{"delete:devices"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Message, "features")
}

func TestHandlerSetRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedUser(t, svc, "alice", "")
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)
	h := newTestRouter(t, svc, admin)

	rr := doJSON(t, h, http.MethodPut, "/users/alice/role", map[string]any{"role": "customer"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodPut, "/users/alice/role", map[string]any{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/users/alice/role", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
