package orders

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

func TestHandlerCustomerOrderFlow(t *testing.T) {
	svc, _ := newTestService(t)
	alice := actorWithRole(t, svc, aliceID, authz.RoleCustomer)
	h := newTestRouter(t, svc, alice)

	rr := doJSON(t, h, http.MethodPost, "/customerorder", validInput(aliceID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, StatusPending, created.Status)

	rr = doJSON(t, h, http.MethodGet, "/customerorder", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))

	rr = doJSON(t, h, http.MethodPatch, "/customerorder/"+created.ID, map[string]any{"status": StatusApproved})
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, ErrStatusNotPermitted.Message, decodeError(t, rr).Message)

	rr = doJSON(t, h, http.MethodPatch, "/customerorder/"+created.ID, map[string]any{"status": StatusCanceled})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var canceled Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &canceled))
	assert.Equal(t, StatusCanceled, canceled.Status)

	rr = doJSON(t, h, http.MethodPatch, "/customerorder/"+created.ID, map[string]any{"notes": "again"})
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, ErrOrderLocked.Action, decodeError(t, rr).Action)

	rr = doJSON(t, h, http.MethodDelete, "/customerorder/"+created.ID, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, decodeError(t, rr).Action, authz.DeleteOrders)
}

func TestHandlerCreateWithoutCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	alice := actorWithRole(t, svc, aliceID, authz.RoleCustomer)

	input := validInput(aliceID)
	delete(input, "customer_id")
	rr := doJSON(t, newTestRouter(t, svc, alice), http.MethodPost, "/customerorder", input)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NotFoundError", decodeError(t, rr).Name)
}

func TestHandlerGetOrder(t *testing.T) {
	svc, _ := newTestService(t)
	o := seedOrder(t, svc, bobID, StatusPending)
	alice := actorWithRole(t, svc, aliceID, authz.RoleCustomer)
	bob := actorWithRole(t, svc, bobID, authz.RoleCustomer)

	rr := doJSON(t, newTestRouter(t, svc, bob), http.MethodGet, "/customerorder/"+o.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, newTestRouter(t, svc, alice), http.MethodGet, "/customerorder/"+o.ID, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
	body := decodeError(t, rr)
	assert.Contains(t, body.Action, authz.ReadOrders)
	assert.Contains(t, body.Action, authz.ReadOrdersSelf)

	rr = doJSON(t, newTestRouter(t, svc, bob), http.MethodGet, "/customerorder/xyz", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerDeleteOrder(t *testing.T) {
	svc, _ := newTestService(t)
	o := seedOrder(t, svc, aliceID, StatusPending)
	manager := actorWithRole(t, svc, "mgr", authz.RoleManager)
	h := newTestRouter(t, svc, manager)

	rr := doJSON(t, h, http.MethodDelete, "/customerorder/"+o.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/customerorder/"+o.ID, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrOrderNotFound.Message, decodeError(t, rr).Message)

	rr = doJSON(t, h, http.MethodDelete, "/customerorder/123", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerOrdersForbiddenForOperator(t *testing.T) {
	svc, _ := newTestService(t)
	operator := actorWithRole(t, svc, "op", authz.RoleOperator)

	rr := doJSON(t, newTestRouter(t, svc, operator), http.MethodGet, "/customerorder", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
