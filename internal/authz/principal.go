package authz

import "fmt"

// Principal describes the caller being authorized.
type Principal interface {
	GetID() string
	// GetFeatures returns the granted features. A nil slice means the context is missing.
	GetFeatures() []string
}

// Owned is implemented by resources that can name their owner.
type Owned interface {
	OwnerID() (string, bool)
}

// Subject is a plain Principal, used for anonymous callers and tests.
type Subject struct {
	ID       string
	Features []string
}

// GetID implements Principal.
func (s *Subject) GetID() string {
	if s == nil {
		return ""
	}
	return s.ID
}

// GetFeatures implements Principal.
func (s *Subject) GetFeatures() []string {
	if s == nil {
		return nil
	}
	return s.Features
}

// ownerKeys is the lookup order for map-shaped resources.
var ownerKeys = []string{"user_id", "owner_id", "created_by", "id"}

// Attributes adapts a loosely typed record to Owned. The owner is the first non-empty
// value among user_id, owner_id, created_by and id.
type Attributes map[string]any

// OwnerID implements Owned.
func (a Attributes) OwnerID() (string, bool) {
	for _, key := range ownerKeys {
		if id, ok := ownerValue(a[key]); ok {
			return id, true
		}
	}
	return "", false
}

func ownerValue(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, value != ""
	case fmt.Stringer:
		s := value.String()
		return s, s != ""
	case bool:
		return "", false
	case int:
		return fmt.Sprint(value), value != 0
	case int64:
		return fmt.Sprint(value), value != 0
	case float64:
		return fmt.Sprint(value), value != 0
	default:
		return "", false
	}
}
