package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
)

// ErrStoreUnavailable wraps every failure reported by the Store.
// Callers must treat it as a denial.
var ErrStoreUnavailable = errors.New("rbac: store unavailable")

// Check names reported to DecisionRecorder.
const (
	CheckPermission = "permission"
	CheckMenu       = "menu"
)

// DecisionRecorder observes access decisions.
type DecisionRecorder interface {
	RecordDecision(check string, allowed bool)
}

// Service answers access-control questions over a Store.
type Service struct {
	store    Store
	logger   *slog.Logger
	recorder DecisionRecorder
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDecisionRecorder sets the decision observer.
func WithDecisionRecorder(r DecisionRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveRoles loads every role linked to the user. A user without links, or a
// non-positive id, yields an empty slice. Order is unspecified.
func (s *Service) ResolveRoles(ctx context.Context, scope *Scope, userID int64) ([]ResolvedRole, error) {
	if userID <= 0 {
		return nil, nil
	}
	roles, err := memo(ctx, scope, queryUserRoles, []string{strconv.FormatInt(userID, 10)}, func(ctx context.Context) ([]ResolvedRole, error) {
		return s.store.UserRoles(ctx, userID)
	})
	if err != nil {
		return nil, storeError("resolve roles", err)
	}
	return roles, nil
}

// HasPermission reports whether any active role of the user grants the active
// permission slug. An active superadmin role grants everything. Unknown slugs
// never match.
func (s *Service) HasPermission(ctx context.Context, scope *Scope, userID int64, slug string) (bool, error) {
	roles, err := s.ResolveRoles(ctx, scope, userID)
	if err != nil {
		return false, err
	}
	allowed := rolesGrantPermission(roles, slug)
	s.record(CheckPermission, allowed)
	s.logger.Debug("rbac permission check",
		slog.Int64("user_id", userID),
		slog.String("permission", slug),
		slog.Bool("allowed", allowed))
	return allowed, nil
}

// CheckPermission evaluates slug for the principal. Anonymous principals are
// denied without touching the store.
func (s *Service) CheckPermission(ctx context.Context, scope *Scope, p Principal, slug string) (bool, error) {
	if !p.Authenticated() {
		s.record(CheckPermission, false)
		return false, nil
	}
	return s.HasPermission(ctx, scope, p.UserID, slug)
}

// HasAnyPermission reports whether at least one slug is granted.
func (s *Service) HasAnyPermission(ctx context.Context, scope *Scope, userID int64, slugs ...string) (bool, error) {
	roles, err := s.ResolveRoles(ctx, scope, userID)
	if err != nil {
		return false, err
	}
	for _, slug := range slugs {
		if rolesGrantPermission(roles, slug) {
			s.record(CheckPermission, true)
			return true, nil
		}
	}
	s.record(CheckPermission, false)
	return false, nil
}

// HasAllPermissions reports whether every slug is granted.
func (s *Service) HasAllPermissions(ctx context.Context, scope *Scope, userID int64, slugs ...string) (bool, error) {
	roles, err := s.ResolveRoles(ctx, scope, userID)
	if err != nil {
		return false, err
	}
	for _, slug := range slugs {
		if !rolesGrantPermission(roles, slug) {
			s.record(CheckPermission, false)
			return false, nil
		}
	}
	s.record(CheckPermission, true)
	return true, nil
}

// UserPermissions returns the sorted, deduplicated permission slugs granted to
// the user. For superadmins it is every active permission in the store.
func (s *Service) UserPermissions(ctx context.Context, scope *Scope, userID int64) ([]string, error) {
	roles, err := s.ResolveRoles(ctx, scope, userID)
	if err != nil {
		return nil, err
	}
	if hasSuperAdmin(roles) {
		slugs, err := memo(ctx, scope, queryPermissionSlugs, nil, s.store.ActivePermissionSlugs)
		if err != nil {
			return nil, storeError("list permissions", err)
		}
		out := append([]string(nil), slugs...)
		sort.Strings(out)
		return out, nil
	}
	set := make(map[string]struct{})
	for _, role := range roles {
		if !role.IsActive {
			continue
		}
		for _, p := range role.Permissions {
			if p.IsActive {
				set[p.Slug] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for slug := range set {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) record(check string, allowed bool) {
	if s.recorder != nil {
		s.recorder.RecordDecision(check, allowed)
	}
}

func hasSuperAdmin(roles []ResolvedRole) bool {
	for _, role := range roles {
		if role.IsSuperAdmin() {
			return true
		}
	}
	return false
}

func rolesGrantPermission(roles []ResolvedRole, slug string) bool {
	if hasSuperAdmin(roles) {
		return true
	}
	for _, role := range roles {
		if !role.IsActive {
			continue
		}
		for _, p := range role.Permissions {
			if p.IsActive && p.Slug == slug {
				return true
			}
		}
	}
	return false
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
