package rbac

import (
	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Check turns a Can denial into a Forbidden error naming the feature. When a target is
// given the error also names the ownership escalation feature.
func Check(e *authz.Engine, p authz.Principal, feature string, target authz.Owned) error {
	ok, err := e.Can(p, feature, target)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if target == nil {
		return httpx.Forbidden(feature)
	}
	f, err := authz.ParseFeature(feature)
	if err != nil {
		return err
	}
	return httpx.ForbiddenEither(feature, f.Others())
}

// Holds reports whether p carries feature with no ownership context. Validation failures
// count as not held.
func Holds(e *authz.Engine, p authz.Principal, feature string) bool {
	ok, err := e.Can(p, feature, nil)
	return err == nil && ok
}
