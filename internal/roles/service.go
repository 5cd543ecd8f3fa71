package roles

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/samachar-news/samachar/internal/platform/httpx"
	"github.com/samachar-news/samachar/internal/rbac"
	"github.com/samachar-news/samachar/internal/shared"
)

// Service handles role, permission and menu administration.
type Service struct {
	repo        RepositoryPort
	audit       AuditSink
	superAdmins rbac.SuperAdminChecker
	logger      *slog.Logger
	validator   *validator.Validate
}

// NewService builds Service instance. audit may be nil. superAdmins decides who
// may create, change or toggle superadmin roles; nil denies everyone.
func NewService(repo RepositoryPort, audit AuditSink, superAdmins rbac.SuperAdminChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, superAdmins: superAdmins, logger: logger, validator: shared.NewValidator()}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns one role with its links.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates and stores a new role.
func (s *Service) CreateRole(ctx context.Context, actor rbac.Principal, in RoleInput) (Role, error) {
	in = normalizeRole(in)
	if err := shared.ValidateStruct(s.validator, in); err != nil {
		return Role{}, err
	}
	if in.Kind == rbac.RoleKindSuperAdmin {
		if err := rbac.RequireSuperAdmin(ctx, s.superAdmins, actor); err != nil {
			return Role{}, err
		}
	}
	role, err := s.repo.CreateRole(ctx, in)
	if err != nil {
		return Role{}, err
	}
	s.emit(ctx, actor, shared.AuditRoleCreated, "role", role.ID, map[string]any{"slug": role.Slug, "kind": string(role.Kind)})
	return role, nil
}

// UpdateRole validates and rewrites a role.
func (s *Service) UpdateRole(ctx context.Context, actor rbac.Principal, id int64, in RoleInput) (Role, error) {
	in = normalizeRole(in)
	if err := shared.ValidateStruct(s.validator, in); err != nil {
		return Role{}, err
	}
	if err := s.guardSuperAdminRole(ctx, actor, id, in.Kind); err != nil {
		return Role{}, err
	}
	role, err := s.repo.UpdateRole(ctx, id, in)
	if err != nil {
		return Role{}, err
	}
	s.emit(ctx, actor, shared.AuditRoleUpdated, "role", id, map[string]any{
		"slug": role.Slug, "kind": string(role.Kind), "is_active": role.IsActive,
	})
	return role, nil
}

// SetRoleActive toggles a role.
func (s *Service) SetRoleActive(ctx context.Context, actor rbac.Principal, id int64, active bool) error {
	if err := s.guardSuperAdminRole(ctx, actor, id, ""); err != nil {
		return err
	}
	if err := s.repo.SetRoleActive(ctx, id, active); err != nil {
		return err
	}
	s.emit(ctx, actor, shared.AuditRoleUpdated, "role", id, map[string]any{"is_active": active})
	return nil
}

// SetRolePermissions replaces the role's permission set.
func (s *Service) SetRolePermissions(ctx context.Context, actor rbac.Principal, id int64, slugs []string) error {
	slugs = shared.NormalizeSlugs(slugs)
	if err := shared.ValidateStruct(s.validator, SlugsInput{Slugs: slugs}); err != nil {
		return err
	}
	if err := s.repo.ReplaceRolePermissions(ctx, id, slugs); err != nil {
		return err
	}
	s.emit(ctx, actor, shared.AuditRolePermissionsSet, "role", id, map[string]any{"permissions": slugs})
	return nil
}

// SetRoleMenus replaces the role's menu set.
func (s *Service) SetRoleMenus(ctx context.Context, actor rbac.Principal, id int64, slugs []string) error {
	slugs = shared.NormalizeSlugs(slugs)
	if err := shared.ValidateStruct(s.validator, SlugsInput{Slugs: slugs}); err != nil {
		return err
	}
	if err := s.repo.ReplaceRoleMenus(ctx, id, slugs); err != nil {
		return err
	}
	s.emit(ctx, actor, shared.AuditRoleMenusSet, "role", id, map[string]any{"menus": slugs})
	return nil
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission validates and stores a permission.
func (s *Service) CreatePermission(ctx context.Context, actor rbac.Principal, in PermissionInput) (Permission, error) {
	in.Slug = shared.NormalizeSlug(in.Slug)
	in.Name = shared.NormalizeTitle(in.Name)
	if err := shared.ValidateStruct(s.validator, in); err != nil {
		return Permission{}, err
	}
	p, err := s.repo.CreatePermission(ctx, in)
	if err != nil {
		return Permission{}, err
	}
	s.emit(ctx, actor, shared.AuditPermissionCreated, "permission", p.ID, map[string]any{"slug": p.Slug})
	return p, nil
}

// SetPermissionActive toggles a permission for every role at once.
func (s *Service) SetPermissionActive(ctx context.Context, actor rbac.Principal, id int64, active bool) error {
	if err := s.repo.SetPermissionActive(ctx, id, active); err != nil {
		return err
	}
	s.emit(ctx, actor, shared.AuditPermissionToggled, "permission", id, map[string]any{"is_active": active})
	return nil
}

// ListMenus returns all menus.
func (s *Service) ListMenus(ctx context.Context) ([]Menu, error) {
	return s.repo.ListMenus(ctx)
}

// CreateMenu validates and stores a menu.
func (s *Service) CreateMenu(ctx context.Context, actor rbac.Principal, in MenuInput) (Menu, error) {
	in = normalizeMenu(in)
	if err := shared.ValidateStruct(s.validator, in); err != nil {
		return Menu{}, err
	}
	if err := s.checkParent(ctx, 0, in.ParentID); err != nil {
		return Menu{}, err
	}
	m, err := s.repo.CreateMenu(ctx, in)
	if err != nil {
		return Menu{}, err
	}
	s.emit(ctx, actor, shared.AuditMenuCreated, "menu", m.ID, menuMeta(m))
	return m, nil
}

// UpdateMenu validates and rewrites a menu. Re-parenting that would form a
// cycle is rejected.
func (s *Service) UpdateMenu(ctx context.Context, actor rbac.Principal, id int64, in MenuInput) (Menu, error) {
	in = normalizeMenu(in)
	if err := shared.ValidateStruct(s.validator, in); err != nil {
		return Menu{}, err
	}
	if err := s.checkParent(ctx, id, in.ParentID); err != nil {
		return Menu{}, err
	}
	m, err := s.repo.UpdateMenu(ctx, id, in)
	if err != nil {
		return Menu{}, err
	}
	s.emit(ctx, actor, shared.AuditMenuUpdated, "menu", id, menuMeta(m))
	return m, nil
}

// SetMenuActive toggles a menu.
func (s *Service) SetMenuActive(ctx context.Context, actor rbac.Principal, id int64, active bool) error {
	if err := s.repo.SetMenuActive(ctx, id, active); err != nil {
		return err
	}
	s.emit(ctx, actor, shared.AuditMenuUpdated, "menu", id, map[string]any{"is_active": active})
	return nil
}

// guardSuperAdminRole requires a superadmin actor when role id is, or would
// become, a superadmin role.
func (s *Service) guardSuperAdminRole(ctx context.Context, actor rbac.Principal, id int64, kind rbac.RoleKind) error {
	current, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if current.Kind != rbac.RoleKindSuperAdmin && kind != rbac.RoleKindSuperAdmin {
		return nil
	}
	return rbac.RequireSuperAdmin(ctx, s.superAdmins, actor)
}

// checkParent verifies parentID exists and that id is not among its ancestors.
func (s *Service) checkParent(ctx context.Context, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if id != 0 && *parentID == id {
		return httpx.FieldErrors{"parent_id": "self"}
	}
	menus, err := s.repo.ListMenus(ctx)
	if err != nil {
		return err
	}
	parents := make(map[int64]*int64, len(menus))
	for _, m := range menus {
		parents[m.ID] = m.ParentID
	}
	if _, ok := parents[*parentID]; !ok {
		return httpx.FieldErrors{"parent_id": "unknown"}
	}
	seen := make(map[int64]struct{})
	for cur := parentID; cur != nil; cur = parents[*cur] {
		if *cur == id {
			return httpx.FieldErrors{"parent_id": "cycle"}
		}
		if _, ok := seen[*cur]; ok {
			break
		}
		seen[*cur] = struct{}{}
	}
	return nil
}

func (s *Service) emit(ctx context.Context, actor rbac.Principal, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.NewAuditLog(actor.UserID, action, entity, strconv.FormatInt(id, 10), meta)
	if err := s.audit.Emit(ctx, log); err != nil {
		s.logger.Warn("emit audit event",
			slog.String("action", action),
			slog.String("entity_id", log.EntityID),
			slog.Any("error", err))
	}
}

func normalizeRole(in RoleInput) RoleInput {
	in.Slug = shared.NormalizeSlug(in.Slug)
	in.Name = shared.NormalizeTitle(in.Name)
	if in.Kind == "" {
		in.Kind = rbac.RoleKindNormal
	}
	return in
}

func normalizeMenu(in MenuInput) MenuInput {
	in.Slug = shared.NormalizeSlug(in.Slug)
	in.Title = shared.NormalizeTitle(in.Title)
	return in
}

func menuMeta(m Menu) map[string]any {
	meta := map[string]any{"slug": m.Slug, "is_active": m.IsActive, "is_public": m.IsPublic}
	if m.ParentID != nil {
		meta["parent_id"] = *m.ParentID
	}
	return meta
}
