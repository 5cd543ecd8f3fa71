package roles

import (
	"context"
	"time"

	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
)

// Role is a role as seen by administrators, with its linked slugs.
type Role struct {
	ID          int64         `json:"id"`
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Kind        rbac.RoleKind `json:"kind"`
	IsActive    bool          `json:"is_active"`
	Permissions []string      `json:"permissions"`
	Menus       []string      `json:"menus"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Permission is a named capability.
type Permission struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Menu is a navigation entry including its flags.
type Menu struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Path     string `json:"path"`
	Icon     string `json:"icon"`
	ParentID *int64 `json:"parent_id"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
	IsPublic bool   `json:"is_public"`
}

// RoleInput creates or updates a role.
type RoleInput struct {
	Slug        string        `json:"slug" validate:"required,max=64"`
	Name        string        `json:"name" validate:"required,max=120"`
	Description string        `json:"description" validate:"max=500"`
	Kind        rbac.RoleKind `json:"kind" validate:"omitempty,oneof=normal superadmin"`
	IsActive    *bool         `json:"is_active"`
}

// PermissionInput creates a permission.
type PermissionInput struct {
	Slug        string `json:"slug" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	IsActive    *bool  `json:"is_active"`
}

// MenuInput creates or updates a menu.
type MenuInput struct {
	Slug     string `json:"slug" validate:"required,max=64"`
	Title    string `json:"title" validate:"required,max=120"`
	Path     string `json:"path" validate:"max=255"`
	Icon     string `json:"icon" validate:"max=64"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Order    int    `json:"order" validate:"gte=0"`
	IsActive *bool  `json:"is_active"`
	IsPublic bool   `json:"is_public"`
}

// ActiveInput toggles the active flag of a role, permission or menu.
type ActiveInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SlugsInput replaces a role's permission or menu links.
type SlugsInput struct {
	Slugs []string `json:"slugs" validate:"max=500,dive,max=64"`
}

// AuditSink receives audit events for administrative changes.
type AuditSink interface {
	Emit(ctx context.Context, log shared.AuditLog) error
}

func active(flag *bool) bool {
	return flag == nil || *flag
}
