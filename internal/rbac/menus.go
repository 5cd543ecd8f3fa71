package rbac

import (
	"context"
	"sort"
	"strconv"
)

// UserMenus returns the dashboard menu forest visible to the user, ordered by
// sort order. Superadmins see every active, non-public menu. Other users see the
// menus linked to their active roles plus the active, non-public direct children
// of those menus; grandchildren appear only when granted themselves. A menu
// appears once: nested under its parent when the parent is part of the result,
// at top level otherwise.
//
// HasMenuAccess answers for granted slugs only, so an expanded child that is not
// itself granted is listed here but reports false there.
func (s *Service) UserMenus(ctx context.Context, scope *Scope, userID int64) ([]MenuNode, error) {
	roles, err := s.ResolveRoles(ctx, scope, userID)
	if err != nil {
		return nil, err
	}
	return memo(ctx, scope, queryUserMenus, []string{strconv.FormatInt(userID, 10)}, func(ctx context.Context) ([]MenuNode, error) {
		if hasSuperAdmin(roles) {
			menus, err := s.dashboardMenus(ctx, scope)
			if err != nil {
				return nil, err
			}
			return buildForest(menus), nil
		}
		slugs := grantedMenuSlugs(roles)
		if len(slugs) == 0 {
			return []MenuNode{}, nil
		}
		menus, err := s.store.MenusBySlugs(ctx, slugs)
		if err != nil {
			return nil, storeError("menus by slug", err)
		}
		menus, err = s.expandChildren(ctx, menus)
		if err != nil {
			return nil, err
		}
		return buildForest(menus), nil
	})
}

// HasMenuAccess reports whether the dashboard menu slug is visible to the user.
func (s *Service) HasMenuAccess(ctx context.Context, scope *Scope, userID int64, menuSlug string) (bool, error) {
	roles, err := s.ResolveRoles(ctx, scope, userID)
	if err != nil {
		return false, err
	}
	allowed := false
	if hasSuperAdmin(roles) {
		menus, err := s.dashboardMenus(ctx, scope)
		if err != nil {
			return false, err
		}
		for _, m := range menus {
			if m.Slug == menuSlug {
				allowed = true
				break
			}
		}
	} else {
		for _, slug := range grantedMenuSlugs(roles) {
			if slug == menuSlug {
				allowed = true
				break
			}
		}
	}
	s.record(CheckMenu, allowed)
	return allowed, nil
}

func (s *Service) dashboardMenus(ctx context.Context, scope *Scope) ([]Menu, error) {
	menus, err := memo(ctx, scope, queryDashboardMenus, nil, s.store.DashboardMenus)
	if err != nil {
		return nil, storeError("dashboard menus", err)
	}
	return menus, nil
}

// expandChildren appends the active, non-public direct children of menus.
func (s *Service) expandChildren(ctx context.Context, menus []Menu) ([]Menu, error) {
	seen := make(map[int64]struct{}, len(menus))
	ids := make([]int64, 0, len(menus))
	for _, m := range menus {
		seen[m.ID] = struct{}{}
		ids = append(ids, m.ID)
	}
	children, err := s.store.MenuChildren(ctx, ids)
	if err != nil {
		return nil, storeError("menu children", err)
	}
	for _, child := range children {
		if _, ok := seen[child.ID]; ok {
			continue
		}
		seen[child.ID] = struct{}{}
		menus = append(menus, child)
	}
	return menus, nil
}

// grantedMenuSlugs collects the distinct active, non-public menu slugs linked to
// the active roles, sorted.
func grantedMenuSlugs(roles []ResolvedRole) []string {
	set := make(map[string]struct{})
	for _, role := range roles {
		if !role.IsActive {
			continue
		}
		for _, m := range role.Menus {
			if m.IsActive && !m.IsPublic {
				set[m.Slug] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for slug := range set {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// buildForest nests menus under their parents. Menus whose parent is absent from
// the input become roots. Siblings are ordered by (Order, ID).
func buildForest(menus []Menu) []MenuNode {
	byID := make(map[int64]Menu, len(menus))
	for _, m := range menus {
		byID[m.ID] = m
	}
	children := make(map[int64][]Menu)
	var roots []Menu
	for _, m := range byID {
		if m.ParentID != nil {
			if _, ok := byID[*m.ParentID]; ok && *m.ParentID != m.ID {
				children[*m.ParentID] = append(children[*m.ParentID], m)
				continue
			}
		}
		roots = append(roots, m)
	}
	visited := make(map[int64]struct{}, len(byID))
	var build func(level []Menu) []MenuNode
	build = func(level []Menu) []MenuNode {
		sortMenus(level)
		nodes := make([]MenuNode, 0, len(level))
		for _, m := range level {
			if _, ok := visited[m.ID]; ok {
				continue
			}
			visited[m.ID] = struct{}{}
			nodes = append(nodes, MenuNode{Menu: m, Children: build(children[m.ID])})
		}
		return nodes
	}
	forest := build(roots)
	if len(visited) < len(byID) {
		// Parent cycles leave menus unreachable from any root.
		var orphans []Menu
		for id, m := range byID {
			if _, ok := visited[id]; !ok {
				orphans = append(orphans, m)
			}
		}
		sortMenus(orphans)
		for _, m := range orphans {
			if _, ok := visited[m.ID]; ok {
				continue
			}
			forest = append(forest, build([]Menu{m})...)
		}
	}
	return forest
}

func sortMenus(menus []Menu) {
	sort.Slice(menus, func(i, j int) bool {
		if menus[i].Order != menus[j].Order {
			return menus[i].Order < menus[j].Order
		}
		return menus[i].ID < menus[j].ID
	})
}
