package users

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
)

// Service handles user administration.
type Service struct {
	repo        RepositoryPort
	audit       AuditSink
	superAdmins rbac.SuperAdminChecker
	logger      *slog.Logger
	validator   *validator.Validate
}

// NewService builds Service instance. audit may be nil. superAdmins decides who
// may grant or revoke superadmin roles; nil denies everyone.
func NewService(repo RepositoryPort, audit AuditSink, superAdmins rbac.SuperAdminChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, superAdmins: superAdmins, logger: logger, validator: shared.NewValidator()}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// RoleSlugs lists assignable role slugs.
func (s *Service) RoleSlugs(ctx context.Context) ([]string, error) {
	return s.repo.RoleSlugs(ctx)
}

// AssignRole links a role to a user. Assigning an existing link is a no-op
// and emits no audit event.
func (s *Service) AssignRole(ctx context.Context, actor rbac.Principal, userID int64, in RoleAssignment) error {
	in.Role = shared.NormalizeSlug(in.Role)
	if err := shared.ValidateStruct(s.validator, in); err != nil {
		return err
	}
	if err := s.guardSuperAdminRole(ctx, actor, in.Role); err != nil {
		return err
	}
	changed, err := s.repo.AssignRole(ctx, userID, in.Role)
	if err != nil {
		return err
	}
	if changed {
		s.emit(ctx, actor, shared.AuditUserRoleAssigned, userID, in.Role)
	}
	return nil
}

// RemoveRole unlinks a role from a user.
func (s *Service) RemoveRole(ctx context.Context, actor rbac.Principal, userID int64, in RoleAssignment) error {
	in.Role = shared.NormalizeSlug(in.Role)
	if err := shared.ValidateStruct(s.validator, in); err != nil {
		return err
	}
	if err := s.guardSuperAdminRole(ctx, actor, in.Role); err != nil {
		return err
	}
	changed, err := s.repo.RemoveRole(ctx, userID, in.Role)
	if err != nil {
		return err
	}
	if changed {
		s.emit(ctx, actor, shared.AuditUserRoleRemoved, userID, in.Role)
	}
	return nil
}

// guardSuperAdminRole requires a superadmin actor to grant or revoke a
// superadmin role.
func (s *Service) guardSuperAdminRole(ctx context.Context, actor rbac.Principal, role string) error {
	kind, err := s.repo.RoleKind(ctx, role)
	if err != nil {
		return err
	}
	if kind != rbac.RoleKindSuperAdmin {
		return nil
	}
	return rbac.RequireSuperAdmin(ctx, s.superAdmins, actor)
}

func (s *Service) emit(ctx context.Context, actor rbac.Principal, action string, userID int64, role string) {
	if s.audit == nil {
		return
	}
	log := shared.NewAuditLog(actor.UserID, action, "user", strconv.FormatInt(userID, 10), map[string]any{"role": role})
	if err := s.audit.Emit(ctx, log); err != nil {
		s.logger.Warn("emit audit event", slog.String("action", action), slog.Any("error", err))
	}
}
