// Package rbactest provides an in-memory rbac.Store for handler tests.
package rbactest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
)

// Store grants flat permission sets to users through one synthetic role each.
type Store struct {
	mu    sync.Mutex
	users map[int64][]string
	Err   error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{users: make(map[int64][]string)}
}

// Grant gives userID the listed permission slugs.
func (s *Store) Grant(userID int64, perms ...string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = append(s.users[userID], perms...)
	return s
}

// Middleware wires a Middleware over the store.
func (s *Store) Middleware() rbac.Middleware {
	return rbac.Middleware{Service: rbac.NewService(s)}
}

// UserRoles implements rbac.Store.
func (s *Store) UserRoles(_ context.Context, userID int64) ([]rbac.ResolvedRole, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	perms, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	role := rbac.ResolvedRole{ID: userID, Slug: "test-" + strconv.FormatInt(userID, 10), Kind: rbac.RoleKindNormal, IsActive: true}
	for _, p := range perms {
		role.Permissions = append(role.Permissions, rbac.PermissionGrant{Slug: p, IsActive: true})
	}
	return []rbac.ResolvedRole{role}, nil
}

// ActivePermissionSlugs implements rbac.Store.
func (s *Store) ActivePermissionSlugs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, perms := range s.users {
		for _, p := range perms {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// DashboardMenus implements rbac.Store.
func (s *Store) DashboardMenus(context.Context) ([]rbac.Menu, error) { return nil, s.Err }

// MenusBySlugs implements rbac.Store.
func (s *Store) MenusBySlugs(context.Context, []string) ([]rbac.Menu, error) { return nil, s.Err }

// MenuChildren implements rbac.Store.
func (s *Store) MenuChildren(context.Context, []int64) ([]rbac.Menu, error) { return nil, nil }

// Request builds a request whose session belongs to userID; zero means anonymous.
func Request(method, target string, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, userID)
}

// WithUser attaches a session for userID to req.
func WithUser(req *http.Request, userID int64) *http.Request {
	sess := shared.NewSession()
	if userID > 0 {
		sess.SetUser(strconv.FormatInt(userID, 10))
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}
