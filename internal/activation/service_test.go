package activation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
	"github.com/rentdesk/rentdesk/internal/users"
	"github.com/rentdesk/rentdesk/jobs"
)

type mockUserStore struct {
	users map[string]*users.User
}

func (m *mockUserStore) ByID(ctx context.Context, id string) (*users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserStore) SetFeatures(ctx context.Context, id string, features []string) (*users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u.Features = append([]string(nil), features...)
	copied := *u
	return &copied, nil
}

type stubQueue struct {
	payloads []jobs.ActivationMailPayload
	err      error
}

func (q *stubQueue) EnqueueActivationMail(ctx context.Context, payload jobs.ActivationMailPayload) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.payloads = append(q.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: jobs.QueueDefault}, nil
}

type fixture struct {
	svc    *Service
	store  *Store
	users  *mockUserStore
	queue  *stubQueue
	engine *authz.Engine
	anon   *authz.Subject
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, _ := newTestStore(t, 15*time.Minute)
	engine := authz.NewEngine(authz.MustDefaultPolicy())
	anonFeatures, err := engine.Policy().Roles().FeaturesFor(authz.RoleAnonymous)
	require.NoError(t, err)
	f := &fixture{
		store: store,
		users: &mockUserStore{users: map[string]*users.User{
			"u1": {ID: "u1", Username: "ryan", Email: "ryan@rentdesk.test", Features: []string{authz.ReadActivationToken}},
		}},
		queue:  &stubQueue{},
		engine: engine,
		anon:   &authz.Subject{Features: anonFeatures},
	}
	f.svc = NewService(store, f.users, engine, f.queue, "https://rentdesk.test", nil)
	return f
}

func TestIssueQueuesMail(t *testing.T) {
	f := newFixture(t)
	u := f.users.users["u1"]

	require.NoError(t, f.svc.Issue(context.Background(), u))
	require.Len(t, f.queue.payloads, 1)
	p := f.queue.payloads[0]
	assert.Equal(t, "ryan@rentdesk.test", p.Email)
	assert.Equal(t, "https://rentdesk.test/api/v1/activations/"+p.Token, p.Link)

	_, err := f.store.Find(context.Background(), p.Token)
	assert.NoError(t, err)
}

func TestIssueReportsQueueFailure(t *testing.T) {
	f := newFixture(t)
	f.queue.err = errors.New("redis down")
	assert.Error(t, f.svc.Issue(context.Background(), f.users.users["u1"]))
}

func TestActivateGrantsCustomerRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, err := f.store.Create(ctx, "u1")
	require.NoError(t, err)

	used, err := f.svc.Activate(ctx, f.anon, token.ID)
	require.NoError(t, err)
	require.NotNil(t, used.UsedAt)

	customer, err := f.engine.Policy().Roles().FeaturesFor(authz.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, customer, f.users.users["u1"].Features)

	_, err = f.svc.Activate(ctx, f.anon, token.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestActivateAlreadyActiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users.users["u1"].Features = []string{authz.CreateSession, authz.ReadSession}
	token, err := f.store.Create(ctx, "u1")
	require.NoError(t, err)

	_, err = f.svc.Activate(ctx, f.anon, token.ID)
	assert.ErrorIs(t, err, ErrAlreadyActivated)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestActivateRequiresFeature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, err := f.store.Create(ctx, "u1")
	require.NoError(t, err)

	_, err = f.svc.Activate(ctx, &authz.Subject{ID: "x", Features: []string{authz.ReadSession}}, token.ID)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	_, err = f.store.Find(ctx, token.ID)
	assert.NoError(t, err)
}

func TestActivateHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, err := f.store.Create(ctx, "u1")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), f.anon)))
		})
	})
	NewHandler(nil, f.svc, rbac.Middleware{Engine: f.engine}).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/activations/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/activations/"+token.ID, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/activations/"+token.ID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
