package authz

import (
	"fmt"
	"sort"
)

// FieldRule is the whitelist attached to a mutation feature.
type FieldRule struct {
	Feature string
	// Allowed fields are copied when the principal can use Feature on the target.
	Allowed []string
	// Forbidden fields reject the whole input with InvalidInput when present.
	Forbidden []string
	// Guarded fields carrying a value need the mapped feature as well, else Forbidden.
	Guarded map[string]string
	// Exclusive rules reject inputs mixing the allowed fields with anything else.
	Exclusive bool
}

type compiledRule struct {
	source    FieldRule
	allowed   []string
	forbidden []string
	guarded   []string
	guards    map[string]string
}

func compileRule(catalog *Catalog, rule FieldRule) (compiledRule, error) {
	if !catalog.Exists(rule.Feature) {
		return compiledRule{}, unknownFeature(rule.Feature, "field rule references a feature outside the catalog")
	}
	c := compiledRule{
		source:    rule,
		allowed:   append([]string(nil), rule.Allowed...),
		forbidden: append([]string(nil), rule.Forbidden...),
		guards:    make(map[string]string, len(rule.Guarded)),
	}
	for field, guard := range rule.Guarded {
		if !catalog.Exists(guard) {
			return compiledRule{}, unknownFeature(guard, fmt.Sprintf("field %q of %s is guarded by a feature outside the catalog", field, rule.Feature))
		}
		c.guarded = append(c.guarded, field)
		c.guards[field] = guard
	}
	sort.Strings(c.guarded)
	sort.Strings(c.forbidden)
	return c, nil
}

func (r compiledRule) permits(field string) bool {
	for _, f := range r.allowed {
		if f == field {
			return true
		}
	}
	_, ok := r.guards[field]
	return ok
}

var (
	timestamps = []string{"id", "created_at", "updated_at"}

	deviceFields = []string{
		"email_acc", "utid_device", "serial_number", "serial_number_router",
		"model", "provider", "tracker_code", "status", "notes",
	}
	orderFields = []string{
		"customer_id", "start_date", "end_date", "notes", "location_refer", "lat", "lng",
	}
	expenseFields = []string{
		"description", "amount_in_cents", "category", "paid_at", "due_date_at",
	}
	userFields = []string{
		"username", "email", "password", "cpf", "phone", "address", "notes",
	}
)

// DefaultRules returns the platform field whitelists.
func DefaultRules() []FieldRule {
	return []FieldRule{
		{Feature: UpdateDevicesStatus, Allowed: []string{"status"}, Exclusive: true},
		{Feature: UpdateDevices, Allowed: deviceFields, Forbidden: timestamps},
		{Feature: CreateDevices, Allowed: deviceFields, Forbidden: timestamps},

		{Feature: CreateOrdersStatus, Allowed: append(append([]string(nil), orderFields...), "status")},
		{
			Feature: CreateOrders,
			Allowed: orderFields,
			Guarded: map[string]string{"status": CreateOrdersStatus},
		},
		{
			Feature:   UpdateOrders,
			Allowed:   orderFields[1:],
			Forbidden: []string{"id", "customer_id", "created_at", "updated_at", "deleted_at"},
			Guarded:   map[string]string{"status": UpdateOrdersStatus},
		},
		{Feature: UpdateOrdersStatus, Allowed: []string{"status"}, Exclusive: true},

		{Feature: CreateExpenses, Allowed: expenseFields, Forbidden: timestamps},
		{Feature: UpdateExpenses, Allowed: expenseFields, Forbidden: timestamps},

		{Feature: CreateUser, Allowed: userFields, Forbidden: append([]string{"features"}, timestamps...)},
		{Feature: UpdateUser, Allowed: userFields, Forbidden: append([]string{"features"}, timestamps...)},
	}
}

// FilterInput returns the subset of input that p may write through feature on target.
// Forbidden fields fail with InvalidInput; privileged fields the principal may not set fail
// with Forbidden. When p cannot use feature on target the result is empty.
func (e *Engine) FilterInput(p Principal, feature string, input map[string]any, target Owned) (map[string]any, error) {
	if _, _, err := e.resolve(p, feature); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return nil, emptyInput(feature)
	}
	rule, ok := e.policy.rules[feature]
	if !ok {
		return nil, unknownFeature(feature, fmt.Sprintf("The feature %q accepts no input.", feature))
	}

	for _, field := range rule.forbidden {
		if _, present := input[field]; present {
			return nil, forbiddenField(feature, field)
		}
	}

	result := make(map[string]any)
	allowed, err := e.Can(p, feature, target)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return result, nil
	}

	if rule.source.Exclusive {
		if err := checkExclusive(feature, rule, input); err != nil {
			return nil, err
		}
	}

	for _, field := range rule.allowed {
		if value, present := input[field]; present {
			result[field] = value
		}
	}

	for _, field := range rule.guarded {
		value, present := input[field]
		if !present {
			continue
		}
		guard := rule.guards[field]
		permitted, err := e.Can(p, guard, target)
		if err != nil {
			return nil, err
		}
		if permitted {
			result[field] = value
			continue
		}
		if !isBlank(value) {
			return nil, guardedField(feature, field, guard)
		}
	}

	return result, nil
}

func checkExclusive(feature string, rule compiledRule, input map[string]any) error {
	var field string
	for _, f := range rule.allowed {
		if _, present := input[f]; present {
			field = f
			break
		}
	}
	if field == "" {
		return nil
	}
	extras := make([]string, 0, len(input))
	for key := range input {
		if !rule.permits(key) {
			extras = append(extras, key)
		}
	}
	if len(extras) == 0 {
		return nil
	}
	sort.Strings(extras)
	return mixedFields(feature, field, extras[0])
}

func isBlank(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	default:
		return false
	}
}
