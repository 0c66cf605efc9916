package authz

import (
	"fmt"
	"strings"
)

// Qualifiers recognised by the ownership convention.
const (
	QualifierSelf   = "self"
	QualifierOthers = "others"
)

// Feature is a parsed capability token of the form action:entity[:qualifier].
type Feature struct {
	Action    string
	Entity    string
	Qualifier string
}

// ParseFeature splits a raw token into its segments.
func ParseFeature(token string) (Feature, error) {
	parts := strings.Split(token, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Feature{}, fmt.Errorf("authz: malformed feature %q", token)
	}
	for _, part := range parts {
		if part == "" || strings.TrimSpace(part) != part {
			return Feature{}, fmt.Errorf("authz: malformed feature %q", token)
		}
	}
	f := Feature{Action: parts[0], Entity: parts[1]}
	if len(parts) == 3 {
		f.Qualifier = parts[2]
	}
	return f, nil
}

// MustParseFeature is ParseFeature for package-level definitions.
func MustParseFeature(token string) Feature {
	f, err := ParseFeature(token)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the raw token.
func (f Feature) String() string {
	if f.Qualifier == "" {
		return f.Action + ":" + f.Entity
	}
	return f.Action + ":" + f.Entity + ":" + f.Qualifier
}

// Others returns the escalation token action:entity:others. Any qualifier on f is dropped.
func (f Feature) Others() string {
	return f.Action + ":" + f.Entity + ":" + QualifierOthers
}

// Catalog is the closed set of valid features. It is immutable once built.
type Catalog struct {
	order []Feature
	index map[string]Feature
}

// NewCatalog builds a catalog from raw tokens, rejecting malformed or duplicate entries.
func NewCatalog(tokens ...string) (*Catalog, error) {
	c := &Catalog{
		order: make([]Feature, 0, len(tokens)),
		index: make(map[string]Feature, len(tokens)),
	}
	for _, token := range tokens {
		f, err := ParseFeature(token)
		if err != nil {
			return nil, err
		}
		if _, dup := c.index[token]; dup {
			return nil, fmt.Errorf("authz: duplicate feature %q", token)
		}
		c.index[token] = f
		c.order = append(c.order, f)
	}
	return c, nil
}

// Exists reports whether token belongs to the catalog.
func (c *Catalog) Exists(token string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[token]
	return ok
}

// Lookup returns the parsed feature for token.
func (c *Catalog) Lookup(token string) (Feature, bool) {
	if c == nil {
		return Feature{}, false
	}
	f, ok := c.index[token]
	return f, ok
}

// Features lists the catalog in declaration order.
func (c *Catalog) Features() []Feature {
	out := make([]Feature, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of features.
func (c *Catalog) Len() int {
	return len(c.order)
}
