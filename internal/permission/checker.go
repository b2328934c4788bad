package permission

import (
	"context"
	"fmt"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// Checker — проверка прав действующего субъекта.
// Субъект с ролью администратора проходит любую проверку; остальные —
// если ресурс назначен пользователю или любой из его ролей (user_roles).
type Checker struct {
	users      *Resolver
	roles      *Resolver
	userRoles  repository.Store[model.Assignment]
	adminRoles []string
}

// NewChecker создаёт Checker.
func NewChecker(users, roles *Resolver, userRoles repository.Store[model.Assignment], adminRoles []string) *Checker {
	return &Checker{users: users, roles: roles, userRoles: userRoles, adminRoles: adminRoles}
}

// IsAdmin — субъект имеет роль администратора.
func (c *Checker) IsAdmin(actor model.Actor) bool {
	return actor.HasAnyRole(c.adminRoles...)
}

// CanAccessMenu проверяет доступ к странице area/page.
func (c *Checker) CanAccessMenu(ctx context.Context, actor model.Actor, area, page string) (bool, error) {
	return c.check(ctx, actor, func(r *Resolver, subjectID string) (bool, error) {
		return r.HasMenuPermission(ctx, subjectID, area, page)
	})
}

// CanUseButton проверяет доступ к действию area/url.
func (c *Checker) CanUseButton(ctx context.Context, actor model.Actor, area, url string) (bool, error) {
	return c.check(ctx, actor, func(r *Resolver, subjectID string) (bool, error) {
		return r.HasButtonPermission(ctx, subjectID, area, url)
	})
}

func (c *Checker) check(ctx context.Context, actor model.Actor, has func(r *Resolver, subjectID string) (bool, error)) (bool, error) {
	if c.IsAdmin(actor) {
		return true, nil
	}
	if actor.ID == "" {
		return false, nil
	}

	ok, err := has(c.users, actor.ID)
	if err != nil || ok {
		return ok, err
	}

	roleIDs, err := c.RoleIDs(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	for _, roleID := range roleIDs {
		ok, err := has(c.roles, roleID)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// RoleIDs возвращает ID ролей пользователя.
func (c *Checker) RoleIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := c.userRoles.List(ctx, query.Where("subjectId", userID), []query.Sort{query.Ascending("resourceId")}, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ролей пользователя: %w", err)
	}
	ids := make([]string, len(rows))
	for i, a := range rows {
		ids[i] = a.ResourceID
	}
	return ids, nil
}
