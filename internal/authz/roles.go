package authz

import (
	"errors"
	"fmt"
	"sort"
)

// Role names a bundle of features granted at account activation or role assignment.
type Role string

// Platform roles.
const (
	RoleAnonymous Role = "anonymous"
	RoleCustomer  Role = "customer"
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleOperator  Role = "operator"
	RoleSupport   Role = "support"
)

// ErrUnknownRole is returned for role names absent from the map.
var ErrUnknownRole = errors.New("authz: unknown role")

// RoleMap translates role names into feature lists. It is immutable once built.
type RoleMap struct {
	grants map[Role][]string
}

// NewRoleMap validates every granted feature against catalog.
func NewRoleMap(catalog *Catalog, grants map[Role][]string) (*RoleMap, error) {
	m := &RoleMap{grants: make(map[Role][]string, len(grants))}
	for role, features := range grants {
		if role == "" {
			return nil, errors.New("authz: empty role name")
		}
		for _, feature := range features {
			if !catalog.Exists(feature) {
				return nil, unknownFeature(feature, fmt.Sprintf("role %q grants a feature outside the catalog", role))
			}
		}
		m.grants[role] = append([]string(nil), features...)
	}
	return m, nil
}

// FeaturesFor returns a copy of the features granted to role, in declaration order.
func (m *RoleMap) FeaturesFor(role Role) ([]string, error) {
	features, ok := m.grants[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return append([]string(nil), features...), nil
}

// Roles lists the role names, sorted.
func (m *RoleMap) Roles() []Role {
	roles := make([]Role, 0, len(m.grants))
	for role := range m.grants {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Baseline features carried by every authenticated role.
func baseline(features ...string) []string {
	return append([]string{CreateSession, ReadSession}, features...)
}

// DefaultRoleGrants returns the platform role definitions.
func DefaultRoleGrants() map[Role][]string {
	admin := baseline(
		CreateUser,
		ReadUser,
		ReadUserOthers,
		UpdateUser,
		UpdateUserOthers,
		UpdateUserFeatures,

		CreateDevices,
		ReadDevices,
		UpdateDevices,
		UpdateDevicesStatus,
		DeleteDevices,

		CreateExpenses,
		ReadExpenses,
		UpdateExpenses,
		DeleteExpenses,

		CreateOrders,
		CreateOrdersOthers,
		CreateOrdersStatus,
		ReadOrders,
		ReadOrdersSelf,
		UpdateOrders,
		UpdateOrdersOthers,
		UpdateOrdersSelf,
		UpdateOrdersStatus,
		DeleteOrders,
		DeleteOrdersCompleted,
	)

	return map[Role][]string{
		RoleAnonymous: {ReadActivationToken, CreateSession, CreateUser},
		RoleCustomer: baseline(
			ReadUser,
			UpdateUser,
			CreateOrders,
			ReadOrdersSelf,
			UpdateOrders,
			UpdateOrdersSelf,
		),
		RoleAdmin:   admin,
		RoleManager: without(admin, DeleteExpenses, DeleteOrdersCompleted, UpdateUserFeatures),
		RoleOperator: baseline(
			ReadUser,
			ReadDevices,
			UpdateDevicesStatus,
		),
		RoleSupport: baseline(
			ReadUser,
			ReadUserOthers,
			ReadDevices,
		),
	}
}

// DefaultRoleMap builds the platform role map on top of catalog.
func DefaultRoleMap(catalog *Catalog) (*RoleMap, error) {
	return NewRoleMap(catalog, DefaultRoleGrants())
}

func without(features []string, drop ...string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, f := range drop {
		skip[f] = struct{}{}
	}
	out := make([]string, 0, len(features))
	for _, f := range features {
		if _, ok := skip[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}
