// permissions.go — назначение прав пользователям и ролям с проверкой
// существования субъекта и ресурса, членство пользователей в ролях.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/permission"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// PermissionService — фасад над резолверами прав.
type PermissionService struct {
	userResolver *permission.Resolver
	roleResolver *permission.Resolver
	checker      *permission.Checker
	users        *repository.Repository[model.User]
	roles        *repository.Repository[model.Role]
	menus        *repository.Repository[model.Menu]
	buttons      *repository.Repository[model.Button]
	userRoles    repository.Store[model.Assignment]
	logger       *slog.Logger
}

// PermissionDeps — зависимости PermissionService.
type PermissionDeps struct {
	UserResolver *permission.Resolver
	RoleResolver *permission.Resolver
	Checker      *permission.Checker
	Users        *repository.Repository[model.User]
	Roles        *repository.Repository[model.Role]
	Menus        *repository.Repository[model.Menu]
	Buttons      *repository.Repository[model.Button]
	UserRoles    repository.Store[model.Assignment]
}

// NewPermissionService создаёт PermissionService.
func NewPermissionService(deps PermissionDeps, logger *slog.Logger) *PermissionService {
	return &PermissionService{
		userResolver: deps.UserResolver,
		roleResolver: deps.RoleResolver,
		checker:      deps.Checker,
		users:        deps.Users,
		roles:        deps.Roles,
		menus:        deps.Menus,
		buttons:      deps.Buttons,
		userRoles:    deps.UserRoles,
		logger:       logger.With(slog.String("component", "permission_service")),
	}
}

// Checker возвращает проверку прав действующего субъекта.
func (s *PermissionService) Checker() *permission.Checker { return s.checker }

// resolver возвращает резолвер вида субъекта, предварительно убедившись,
// что субъект существует.
func (s *PermissionService) resolver(ctx context.Context, kind permission.SubjectKind, subjectID string) (*permission.Resolver, error) {
	switch kind {
	case permission.SubjectUser:
		if _, err := s.users.FindByID(ctx, subjectID); err != nil {
			return nil, err
		}
		return s.userResolver, nil
	case permission.SubjectRole:
		if _, err := s.roles.FindByID(ctx, subjectID); err != nil {
			return nil, err
		}
		return s.roleResolver, nil
	}
	return nil, invalid("subject", fmt.Sprintf("неизвестный вид субъекта %q", kind))
}

// checkResource проверяет, что ресурс существует и не удалён.
func (s *PermissionService) checkResource(ctx context.Context, res permission.Resource) error {
	var deleted bool
	switch res.Kind {
	case permission.ResourceMenu:
		m, err := s.menus.FindByID(ctx, res.ID)
		if err != nil {
			return err
		}
		deleted = m.IsDeleted
	case permission.ResourceButton:
		b, err := s.buttons.FindByID(ctx, res.ID)
		if err != nil {
			return err
		}
		deleted = b.IsDeleted
	default:
		return invalid("resource", fmt.Sprintf("неизвестный вид ресурса %q", res.Kind))
	}
	if deleted {
		return invalid("resource", "ресурс удалён")
	}
	return nil
}

// Assign назначает ресурс субъекту.
func (s *PermissionService) Assign(ctx context.Context, actor model.Actor, kind permission.SubjectKind, subjectID string, res permission.Resource) error {
	r, err := s.resolver(ctx, kind, subjectID)
	if err != nil {
		return err
	}
	if err := s.checkResource(ctx, res); err != nil {
		return err
	}
	return r.Assign(ctx, actor, subjectID, res)
}

// Unassign снимает назначение (без ошибки, если его нет).
func (s *PermissionService) Unassign(ctx context.Context, kind permission.SubjectKind, subjectID string, res permission.Resource) error {
	r, err := s.resolver(ctx, kind, subjectID)
	if err != nil {
		return err
	}
	return r.Unassign(ctx, subjectID, res)
}

// AuthorizationTree строит дерево авторизации субъекта.
func (s *PermissionService) AuthorizationTree(ctx context.Context, kind permission.SubjectKind, subjectID, parentID string) ([]*permission.TreeNode, error) {
	r, err := s.resolver(ctx, kind, subjectID)
	if err != nil {
		return nil, err
	}
	return r.BuildAuthorizationTree(ctx, subjectID, parentID)
}

// AddUserRole включает пользователя в роль.
func (s *PermissionService) AddUserRole(ctx context.Context, actor model.Actor, userID, roleID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsDeleted {
		return invalid("roleId", "роль удалена")
	}

	err = s.userRoles.Insert(ctx, &model.Assignment{
		SubjectID:     userID,
		ResourceID:    roleID,
		CreatedBy:     actor.IDRef(),
		CreatedByName: actor.NameRef(),
		CreatedAt:     time.Now().UTC(),
	})
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("User %s → Role %s: %w", userID, roleID, permission.ErrDuplicateAssignment)
	}
	if err != nil {
		return err
	}
	s.logger.Info("Пользователь включён в роль", slog.String("user_id", userID), slog.String("role_id", roleID))
	return nil
}

// RemoveUserRole исключает пользователя из роли.
func (s *PermissionService) RemoveUserRole(ctx context.Context, userID, roleID string) error {
	_, err := s.userRoles.DeleteWhere(ctx, query.AllOf(
		query.Where("subjectId", userID),
		query.Where("resourceId", roleID),
	))
	return err
}

// UserRoles возвращает роли пользователя.
func (s *PermissionService) UserRoles(ctx context.Context, userID string) ([]*model.Role, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.checker.RoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Role{}, nil
	}
	return s.roles.FindMany(ctx, query.InStrings("id", ids), query.Ascending("name"))
}

// Check отвечает, есть ли у субъекта доступ к странице (page) или
// действию (url) в области area. Задаётся ровно одно из page/url.
func (s *PermissionService) Check(ctx context.Context, actor model.Actor, area, page, url string) (bool, error) {
	switch {
	case page != "" && url == "":
		return s.checker.CanAccessMenu(ctx, actor, area, page)
	case url != "" && page == "":
		return s.checker.CanUseButton(ctx, actor, area, url)
	}
	return false, invalid("page", "нужно указать ровно одно из page или url")
}
