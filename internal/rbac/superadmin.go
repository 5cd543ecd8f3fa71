package rbac

import (
	"context"
	"fmt"

	"github.com/samachar-news/samachar/internal/platform/httpx"
)

// SuperAdminChecker reports whether a user holds an active superadmin role.
type SuperAdminChecker interface {
	IsSuperAdmin(ctx context.Context, scope *Scope, userID int64) (bool, error)
}

// IsSuperAdmin reports whether any active role of the user is a superadmin role.
func (s *Service) IsSuperAdmin(ctx context.Context, scope *Scope, userID int64) (bool, error) {
	roles, err := s.ResolveRoles(ctx, scope, userID)
	if err != nil {
		return false, err
	}
	return hasSuperAdmin(roles), nil
}

// RequireSuperAdmin guards changes that would hand out the superadmin wildcard.
// It returns httpx.ErrForbidden unless p holds an active superadmin role, and
// denies everyone when checker is nil. Store failures map to httpx.ErrUnavailable.
func RequireSuperAdmin(ctx context.Context, checker SuperAdminChecker, p Principal) error {
	if checker == nil || !p.Authenticated() {
		return fmt.Errorf("%w: superadmin required", httpx.ErrForbidden)
	}
	ok, err := checker.IsSuperAdmin(ctx, ScopeFromContext(ctx), p.UserID)
	if err != nil {
		return fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: superadmin required", httpx.ErrForbidden)
	}
	return nil
}
