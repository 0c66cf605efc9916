package expenses

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	expenses map[string]*Expense
	order    []string
	nextID   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{expenses: make(map[string]*Expense), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, e *Expense) error {
	e.ID = fmt.Sprintf("00000000-0000-4000-a000-%012d", m.nextID)
	m.nextID++
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	m.expenses[e.ID] = &stored
	m.order = append(m.order, e.ID)
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, ErrExpenseNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, page shared.PageRequest) ([]Expense, int, error) {
	var all []Expense
	for _, id := range m.order {
		if e, ok := m.expenses[id]; ok {
			all = append(all, *e)
		}
	}
	total := len(all)
	start := min(page.Offset(), total)
	end := min(start+page.Limit(), total)
	return all[start:end], total, nil
}

func (m *mockRepository) Update(ctx context.Context, e *Expense) error {
	if _, ok := m.expenses[e.ID]; !ok {
		return ErrExpenseNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	stored := *e
	m.expenses[e.ID] = &stored
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.expenses[id]; !ok {
		return ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	return NewService(repo, authz.NewEngine(authz.MustDefaultPolicy()), nil), repo
}

func actorWithRole(t *testing.T, svc *Service, id string, role authz.Role) *authz.Subject {
	t.Helper()
	features, err := svc.engine.Policy().Roles().FeaturesFor(role)
	require.NoError(t, err)
	return &authz.Subject{ID: id, Features: features}
}

func validInput() map[string]any {
	return map[string]any{
		"description":     "Power bill",
		"amount_in_cents": 15990,
		"category":        "utilities",
		"due_date_at":     "2026-11-10T00:00:00Z",
	}
}

func seedExpense(t *testing.T, svc *Service) *Expense {
	t.Helper()
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)
	e, err := svc.Create(context.Background(), admin, validInput())
	require.NoError(t, err)
	return e
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateExpense(t *testing.T) {
	svc, repo := newTestService(t)

	e := seedExpense(t, svc)
	assert.Equal(t, "Power bill", e.Description)
	assert.Equal(t, int64(15990), e.AmountInCents)
	require.NotNil(t, e.Category)
	assert.Equal(t, "utilities", *e.Category)
	require.NotNil(t, e.DueDateAt)
	assert.Equal(t, time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC), e.DueDateAt.UTC())
	assert.Nil(t, e.PaidAt)
	assert.Len(t, repo.expenses, 1)
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, _ := newTestService(t)
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing description", func(in map[string]any) { delete(in, "description") }},
		{"blank description", func(in map[string]any) { in["description"] = "" }},
		{"missing amount", func(in map[string]any) { delete(in, "amount_in_cents") }},
		{"null amount", func(in map[string]any) { in["amount_in_cents"] = nil }},
		{"negative amount", func(in map[string]any) { in["amount_in_cents"] = -1 }},
		{"invalid category", func(in map[string]any) { in["category"] = "invalid-category" }},
		{"invalid date", func(in map[string]any) { in["paid_at"] = "yesterday" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			_, err := svc.Create(context.Background(), admin, input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, httpx.ErrValidation))
		})
	}
}

func TestCreateExpenseAcceptsZeroAmountAndAnyCategory(t *testing.T) {
	svc, _ := newTestService(t)
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)

	for _, category := range Categories {
		input := validInput()
		input["category"] = category
		input["amount_in_cents"] = 0
		_, err := svc.Create(context.Background(), admin, input)
		require.NoError(t, err, category)
	}
}

func TestCreateExpenseForbiddenForCustomer(t *testing.T) {
	svc, repo := newTestService(t)
	customer := actorWithRole(t, svc, "cust", authz.RoleCustomer)

	_, err := svc.Create(context.Background(), customer, validInput())
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
	assert.Empty(t, repo.expenses)
}

// ============================================================================
// UPDATE
// ============================================================================

func TestUpdateExpense(t *testing.T) {
	svc, _ := newTestService(t)
	manager := actorWithRole(t, svc, "mgr", authz.RoleManager)
	e := seedExpense(t, svc)

	updated, err := svc.Update(context.Background(), manager, e.ID, map[string]any{
		"amount_in_cents": 20000,
		"paid_at":         "2026-11-09T14:00:00Z",
		"category":        nil,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.AmountInCents)
	assert.Equal(t, "Power bill", updated.Description)
	require.NotNil(t, updated.PaidAt)
	assert.Nil(t, updated.Category)
	assert.NotNil(t, updated.DueDateAt)
}

func TestUpdateExpenseValidation(t *testing.T) {
	svc, repo := newTestService(t)
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)
	e := seedExpense(t, svc)

	_, err := svc.Update(context.Background(), admin, e.ID, map[string]any{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	_, err = svc.Update(context.Background(), admin, e.ID, map[string]any{"description": ""})
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = svc.Update(context.Background(), admin, e.ID, map[string]any{"description": nil})
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = svc.Update(context.Background(), admin, e.ID, map[string]any{"amount_in_cents": -5})
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	for _, field := range []string{"id", "created_at", "updated_at"} {
		_, err = svc.Update(context.Background(), admin, e.ID, map[string]any{field: "x", "description": "y"})
		assert.True(t, errors.Is(err, authz.ErrInvalidInput), field)
	}

	assert.Equal(t, "Power bill", repo.expenses[e.ID].Description)
	assert.Equal(t, int64(15990), repo.expenses[e.ID].AmountInCents)
}

func TestUpdateExpenseNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)

	_, err := svc.Update(context.Background(), admin, "00000000-0000-4000-a000-999999999999", map[string]any{"description": "x"})
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

// ============================================================================
// READ / DELETE
// ============================================================================

func TestListExpenses(t *testing.T) {
	svc, _ := newTestService(t)
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)
	operator := actorWithRole(t, svc, "op", authz.RoleOperator)
	for i := 0; i < 3; i++ {
		seedExpense(t, svc)
	}

	list, pagination, err := svc.List(context.Background(), admin, shared.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 3, pagination.Total)
	assert.Equal(t, 1, pagination.TotalPages)

	_, _, err = svc.List(context.Background(), operator, shared.PageRequest{})
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestDeleteExpense(t *testing.T) {
	svc, repo := newTestService(t)
	admin := actorWithRole(t, svc, "admin", authz.RoleAdmin)
	manager := actorWithRole(t, svc, "mgr", authz.RoleManager)
	e := seedExpense(t, svc)

	err := svc.Delete(context.Background(), manager, e.ID)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
	assert.Len(t, repo.expenses, 1)

	require.NoError(t, svc.Delete(context.Background(), admin, e.ID))
	assert.Empty(t, repo.expenses)

	err = svc.Delete(context.Background(), admin, e.ID)
	assert.ErrorIs(t, err, ErrExpenseNotFound)

	_, err = svc.Get(context.Background(), admin, e.ID)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}
