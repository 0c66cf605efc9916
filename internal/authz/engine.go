package authz

import (
	"fmt"
	"slices"
)

// Policy bundles the immutable authorization configuration.
type Policy struct {
	catalog *Catalog
	roles   *RoleMap
	rules   map[string]compiledRule
}

// NewPolicy validates rules against catalog and freezes the configuration.
func NewPolicy(catalog *Catalog, roles *RoleMap, rules []FieldRule) (*Policy, error) {
	if catalog == nil {
		return nil, fmt.Errorf("authz: nil catalog")
	}
	if roles == nil {
		return nil, fmt.Errorf("authz: nil role map")
	}
	p := &Policy{catalog: catalog, roles: roles, rules: make(map[string]compiledRule, len(rules))}
	for _, rule := range rules {
		compiled, err := compileRule(catalog, rule)
		if err != nil {
			return nil, err
		}
		if _, dup := p.rules[rule.Feature]; dup {
			return nil, fmt.Errorf("authz: duplicate field rule for %s", rule.Feature)
		}
		p.rules[rule.Feature] = compiled
	}
	return p, nil
}

// DefaultPolicy builds the platform catalog, role map and field rules.
func DefaultPolicy() (*Policy, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	roles, err := DefaultRoleMap(catalog)
	if err != nil {
		return nil, err
	}
	return NewPolicy(catalog, roles, DefaultRules())
}

// MustDefaultPolicy is DefaultPolicy for process start-up.
func MustDefaultPolicy() *Policy {
	p, err := DefaultPolicy()
	if err != nil {
		panic(err)
	}
	return p
}

// Catalog exposes the feature catalog.
func (p *Policy) Catalog() *Catalog { return p.catalog }

// Roles exposes the role map.
func (p *Policy) Roles() *RoleMap { return p.roles }

// Rule returns the field rule registered for feature.
func (p *Policy) Rule(feature string) (FieldRule, bool) {
	r, ok := p.rules[feature]
	if !ok {
		return FieldRule{}, false
	}
	return r.source, true
}

// Observer is notified of every Can decision.
type Observer interface {
	ObserveDecision(feature string, allowed bool)
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a decision observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine answers authorization questions against a Policy. It holds no mutable state.
type Engine struct {
	policy   *Policy
	observer Observer
}

// NewEngine constructs an Engine.
func NewEngine(policy *Policy, opts ...Option) *Engine {
	e := &Engine{policy: policy}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configuration the engine decides against.
func (e *Engine) Policy() *Policy { return e.policy }

// Can reports whether p holds feature, taking ownership of target into account.
// Pass a nil target when no resource is involved. A denial is (false, nil).
func (e *Engine) Can(p Principal, feature string, target Owned) (bool, error) {
	f, granted, err := e.resolve(p, feature)
	if err != nil {
		return false, err
	}
	allowed := e.decide(p, f, granted, target)
	if e.observer != nil {
		e.observer.ObserveDecision(feature, allowed)
	}
	return allowed, nil
}

// Has is Can without a target.
func (e *Engine) Has(p Principal, feature string) (bool, error) {
	return e.Can(p, feature, nil)
}

func (e *Engine) resolve(p Principal, feature string) (Feature, []string, error) {
	if p == nil {
		return Feature{}, nil, missingContext(feature, "No user was provided.")
	}
	granted := p.GetFeatures()
	if granted == nil {
		return Feature{}, nil, missingContext(feature, "The user has no feature list.")
	}
	if feature == "" {
		return Feature{}, nil, unknownFeature(feature, "No feature was provided.")
	}
	f, ok := e.policy.catalog.Lookup(feature)
	if !ok {
		return Feature{}, nil, unknownFeature(feature, fmt.Sprintf("The feature %q does not exist.", feature))
	}
	return f, granted, nil
}

func (e *Engine) decide(p Principal, f Feature, granted []string, target Owned) bool {
	if !slices.Contains(granted, f.String()) {
		return false
	}
	if isNil(target) {
		return true
	}
	if owner, ok := target.OwnerID(); ok && owner == p.GetID() {
		return true
	}
	return slices.Contains(granted, f.Others())
}

// isNil treats a nil interface and a nil Attributes map as absent targets.
func isNil(target Owned) bool {
	if target == nil {
		return true
	}
	if attrs, ok := target.(Attributes); ok {
		return attrs == nil
	}
	return false
}
