package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

func TestFilterInputValidation(t *testing.T) {
	e := newTestEngine(t)
	admin := roleSubject(t, e, "admin", RoleAdmin)

	_, err := e.FilterInput(nil, UpdateDevices, map[string]any{"model": "X"}, nil)
	assert.Equal(t, KindMissingContext, KindOf(err))

	_, err = e.FilterInput(admin, "bogus:feature", map[string]any{"model": "X"}, nil)
	assert.Equal(t, KindUnknownFeature, KindOf(err))

	_, err = e.FilterInput(admin, UpdateDevices, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.FilterInput(admin, UpdateDevices, map[string]any{}, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.FilterInput(admin, ReadDevices, map[string]any{"model": "X"}, nil)
	assert.Equal(t, KindUnknownFeature, KindOf(err))
}

func TestFilterInputForbiddenFieldsNamed(t *testing.T) {
	e := newTestEngine(t)
	admin := roleSubject(t, e, "admin", RoleAdmin)
	target := Attributes{"id": "device-1"}

	for _, field := range []string{"id", "created_at", "updated_at"} {
		t.Run(field, func(t *testing.T) {
			_, err := e.FilterInput(admin, UpdateDevices, map[string]any{field: nil, "model": "X"}, target)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.True(t, errors.Is(err, httpx.ErrValidation))

			var authzErr *Error
			require.True(t, errors.As(err, &authzErr))
			assert.Equal(t, field, authzErr.Field)
			assert.Contains(t, authzErr.Message, field)
		})
	}
}

func TestFilterInputForbiddenFieldsCheckedBeforePermission(t *testing.T) {
	e := newTestEngine(t)
	customer := roleSubject(t, e, "cust", RoleCustomer)

	_, err := e.FilterInput(customer, UpdateDevices, map[string]any{"id": "x"}, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestFilterInputUpdateDevices(t *testing.T) {
	e := newTestEngine(t)
	admin := roleSubject(t, e, "admin", RoleAdmin)

	input := map[string]any{
		"model":        "GT06",
		"status":       "rented",
		"notes":        nil,
		"unknown_key":  "dropped",
		"serial_value": 12,
	}
	got, err := e.FilterInput(admin, UpdateDevices, input, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"model": "GT06", "status": "rented", "notes": nil}, got)

	input["model"] = "changed"
	assert.Equal(t, "GT06", got["model"])
}

func TestFilterInputStatusOnlyRejectsMixedFields(t *testing.T) {
	e := newTestEngine(t)
	operator := roleSubject(t, e, "op", RoleOperator)

	_, err := e.FilterInput(operator, UpdateDevicesStatus, map[string]any{"status": "rented", "model": "X"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	got, err := e.FilterInput(operator, UpdateDevicesStatus, map[string]any{"status": "maintenance"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "maintenance"}, got)

	got, err = e.FilterInput(operator, UpdateDevicesStatus, map[string]any{"model": "X"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterInputWithoutPermissionContributesNothing(t *testing.T) {
	e := newTestEngine(t)
	support := roleSubject(t, e, "sup", RoleSupport)

	got, err := e.FilterInput(support, UpdateDevicesStatus, map[string]any{"status": "rented", "model": "X"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterInputCreateOrdersStatusGuard(t *testing.T) {
	e := newTestEngine(t)
	customer := roleSubject(t, e, "cust", RoleCustomer)
	admin := roleSubject(t, e, "admin", RoleAdmin)
	own := ownedRecord{owner: "cust"}

	input := map[string]any{
		"status":      "approved",
		"customer_id": "cust",
		"start_date":  "2026-01-01",
		"end_date":    "2026-02-01",
	}

	_, err := e.FilterInput(customer, CreateOrders, input, own)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	var authzErr *Error
	require.True(t, errors.As(err, &authzErr))
	assert.Equal(t, "status", authzErr.Field)

	got, err := e.FilterInput(admin, CreateOrders, input, own)
	require.NoError(t, err)
	assert.Equal(t, input, got)

	delete(input, "status")
	got, err = e.FilterInput(customer, CreateOrders, input, own)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestFilterInputCreateOrdersBlankStatusIsDropped(t *testing.T) {
	e := newTestEngine(t)
	customer := roleSubject(t, e, "cust", RoleCustomer)

	got, err := e.FilterInput(customer, CreateOrders, map[string]any{"status": nil, "notes": "n"}, ownedRecord{owner: "cust"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"notes": "n"}, got)
}

func TestFilterInputCreateOrdersForOthers(t *testing.T) {
	e := newTestEngine(t)
	customer := roleSubject(t, e, "cust", RoleCustomer)

	got, err := e.FilterInput(customer, CreateOrders, map[string]any{"customer_id": "other"}, Attributes{"id": "other"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterInputUpdateOrders(t *testing.T) {
	e := newTestEngine(t)
	customer := roleSubject(t, e, "cust", RoleCustomer)
	manager := roleSubject(t, e, "mgr", RoleManager)
	own := ownedRecord{owner: "cust"}

	_, err := e.FilterInput(customer, UpdateOrders, map[string]any{"customer_id": "other"}, own)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.FilterInput(customer, UpdateOrders, map[string]any{"status": "completed"}, own)
	assert.True(t, errors.Is(err, ErrForbidden))

	got, err := e.FilterInput(customer, UpdateOrders, map[string]any{"notes": "gate 2", "lat": -23.5}, own)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"notes": "gate 2", "lat": -23.5}, got)

	got, err = e.FilterInput(manager, UpdateOrders, map[string]any{"status": "completed", "notes": "done"}, own)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "completed", "notes": "done"}, got)
}

func TestFilterInputUserForbidsFeatures(t *testing.T) {
	e := newTestEngine(t)
	customer := roleSubject(t, e, "cust", RoleCustomer)
	self := ownedRecord{owner: "cust"}

	_, err := e.FilterInput(customer, UpdateUser, map[string]any{"features": []any{"delete:devices"}}, self)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	got, err := e.FilterInput(customer, UpdateUser, map[string]any{"phone": "555"}, self)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"phone": "555"}, got)

	got, err = e.FilterInput(customer, UpdateUser, map[string]any{"phone": "555"}, Attributes{"id": "other"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterInputIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	admin := roleSubject(t, e, "admin", RoleAdmin)
	input := map[string]any{"description": "Power bill", "amount_in_cents": 12000, "category": "utilities", "bogus": true}

	first, err := e.FilterInput(admin, UpdateExpenses, input, nil)
	require.NoError(t, err)
	second, err := e.FilterInput(admin, UpdateExpenses, input, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, input, 4)
}

func TestFilterInputResultStaysInsideWhitelist(t *testing.T) {
	e := newTestEngine(t)
	admin := roleSubject(t, e, "admin", RoleAdmin)

	for _, rule := range DefaultRules() {
		t.Run(rule.Feature, func(t *testing.T) {
			whitelist := map[string]bool{}
			input := map[string]any{}
			for _, field := range rule.Allowed {
				whitelist[field] = true
				input[field] = "v-" + field
			}
			for field := range rule.Guarded {
				whitelist[field] = true
				input[field] = "v-" + field
			}
			if !rule.Exclusive {
				input["not_a_field"] = "x"
			}

			got, err := e.FilterInput(admin, rule.Feature, input, nil)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			for key, value := range got {
				assert.True(t, whitelist[key], "%s leaked %s", rule.Feature, key)
				assert.Equal(t, "v-"+key, value)
			}
		})
	}
}
