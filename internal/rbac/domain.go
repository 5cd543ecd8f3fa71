package rbac

import (
	"context"
	"strconv"

	"github.com/samachar-news/samachar/internal/shared"
)

// RoleKind distinguishes ordinary roles from the wildcard role.
type RoleKind string

const (
	// RoleKindNormal grants exactly the linked permissions and menus.
	RoleKindNormal RoleKind = "normal"
	// RoleKindSuperAdmin grants every active permission and every dashboard menu.
	RoleKindSuperAdmin RoleKind = "superadmin"
)

// ParseRoleKind maps a stored kind to RoleKind. Unknown values degrade to normal.
func ParseRoleKind(raw string) RoleKind {
	if RoleKind(raw) == RoleKindSuperAdmin {
		return RoleKindSuperAdmin
	}
	return RoleKindNormal
}

// PermissionGrant is a permission reachable through a role link.
type PermissionGrant struct {
	Slug     string
	IsActive bool
}

// MenuGrant is a menu reachable through a role link.
type MenuGrant struct {
	Slug     string
	IsActive bool
	IsPublic bool
}

// ResolvedRole is a role linked to a user, with its permission and menu links
// loaded eagerly. Inactive entries are kept; evaluation filters them.
type ResolvedRole struct {
	ID          int64
	Slug        string
	Kind        RoleKind
	IsActive    bool
	Permissions []PermissionGrant
	Menus       []MenuGrant
}

// IsSuperAdmin reports whether the role is an active wildcard role.
func (r ResolvedRole) IsSuperAdmin() bool {
	return r.IsActive && r.Kind == RoleKindSuperAdmin
}

// Menu is a navigation entry.
type Menu struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Path     string `json:"path"`
	Icon     string `json:"icon,omitempty"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Order    int    `json:"order"`
	IsActive bool   `json:"-"`
	IsPublic bool   `json:"-"`
}

// MenuNode is a menu with its visible children attached.
type MenuNode struct {
	Menu
	Children []MenuNode `json:"children"`
}

// Principal is the identity an access check is evaluated for.
// The zero value is anonymous.
type Principal struct {
	UserID int64
}

// Authenticated reports whether the principal refers to a user.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// String renders the user id for logs.
func (p Principal) String() string {
	if !p.Authenticated() {
		return "anonymous"
	}
	return strconv.FormatInt(p.UserID, 10)
}

// PrincipalFromContext derives the principal from the request session.
func PrincipalFromContext(ctx context.Context) Principal {
	id, ok := shared.SessionUserID(ctx)
	if !ok {
		return Principal{}
	}
	return Principal{UserID: id}
}
