package users

import (
	"context"
	"time"

	"github.com/samachar-news/samachar/internal/shared"
)

// User represents a user account for management.
type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RoleAssignment names the role to link or unlink.
type RoleAssignment struct {
	Role string `json:"role" validate:"required,max=64"`
}

// AuditSink receives audit events for role assignment changes.
type AuditSink interface {
	Emit(ctx context.Context, log shared.AuditLog) error
}
