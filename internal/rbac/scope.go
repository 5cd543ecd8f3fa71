package rbac

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Query kinds memoized by Scope.
const (
	queryUserRoles       = "user_roles"
	queryPermissionSlugs = "permission_slugs"
	queryDashboardMenus  = "dashboard_menus"
	queryUserMenus       = "user_menus"
)

// Scope memoizes store lookups for the lifetime of one inbound request.
//
// A Scope is created when a request starts and dropped when it ends; it has no
// expiry and no invalidation. Concurrent identical lookups on the same Scope are
// coalesced into one store call. Failed lookups are not remembered.
// A nil *Scope is valid and disables memoization.
type Scope struct {
	mu      sync.Mutex
	entries map[string]any
	group   singleflight.Group
}

// NewScope returns an empty Scope.
func NewScope() *Scope {
	return &Scope{entries: make(map[string]any)}
}

// Len reports how many results the scope currently holds.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func scopeKey(kind string, args ...string) string {
	return kind + "\x00" + strings.Join(args, "\x00")
}

func (s *Scope) lookup(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

func (s *Scope) store(key string, v any) {
	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
}

// memo returns the remembered result for (kind, args) or runs load once.
func memo[T any](ctx context.Context, s *Scope, kind string, args []string, load func(context.Context) (T, error)) (T, error) {
	if s == nil {
		return load(ctx)
	}
	key := scopeKey(kind, args...)
	if v, ok := s.lookup(key); ok {
		return v.(T), nil
	}
	// The shared load outlives any single waiter; each waiter still honours its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		s.store(key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

type scopeContextKey struct{}

// ContextWithScope attaches a request scope to ctx.
func ContextWithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFromContext returns the scope installed by Middleware.Scope, or nil.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeContextKey{}).(*Scope)
	return s
}
