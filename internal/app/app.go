// Пакет app — сборка репозиториев, резолверов прав и сервисов Backoffice
// Module поверх выбранного хранилища (PostgreSQL или память).
package app

import (
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/backoffice-module/internal/audit"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/schema"
	"github.com/bigkaa/goartstore/backoffice-module/internal/permission"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
	"github.com/bigkaa/goartstore/backoffice-module/internal/service"
)

// Stores — хранилища всех таблиц.
type Stores struct {
	Menus               repository.Store[model.Menu]
	Buttons             repository.Store[model.Button]
	Roles               repository.Store[model.Role]
	Users               repository.Store[model.User]
	Majors              repository.Store[model.Major]
	OperationLogs       repository.Store[model.OperationLog]
	OperationLogDetails repository.Store[model.OperationLogDetail]
	UserMenus           repository.Store[model.Assignment]
	UserButtons         repository.Store[model.Assignment]
	RoleMenus           repository.Store[model.Assignment]
	RoleButtons         repository.Store[model.Assignment]
	UserRoles           repository.Store[model.Assignment]
}

// PostgresStores создаёт хранилища над пулом соединений PostgreSQL.
func PostgresStores(db repository.DBTX) Stores {
	return Stores{
		Menus:               repository.NewPgStore(db, schema.Menus),
		Buttons:             repository.NewPgStore(db, schema.Buttons),
		Roles:               repository.NewPgStore(db, schema.Roles),
		Users:               repository.NewPgStore(db, schema.Users),
		Majors:              repository.NewPgStore(db, schema.Majors),
		OperationLogs:       repository.NewPgStore(db, schema.OperationLogs),
		OperationLogDetails: repository.NewPgStore(db, schema.OperationLogDetails),
		UserMenus:           repository.NewPgStore(db, schema.UserMenus),
		UserButtons:         repository.NewPgStore(db, schema.UserButtons),
		RoleMenus:           repository.NewPgStore(db, schema.RoleMenus),
		RoleButtons:         repository.NewPgStore(db, schema.RoleButtons),
		UserRoles:           repository.NewPgStore(db, schema.UserRoles),
	}
}

// MemoryStores создаёт хранилища в памяти процесса.
func MemoryStores() Stores {
	return Stores{
		Menus:               repository.NewMemStore(schema.Menus),
		Buttons:             repository.NewMemStore(schema.Buttons),
		Roles:               repository.NewMemStore(schema.Roles),
		Users:               repository.NewMemStore(schema.Users),
		Majors:              repository.NewMemStore(schema.Majors),
		OperationLogs:       repository.NewMemStore(schema.OperationLogs),
		OperationLogDetails: repository.NewMemStore(schema.OperationLogDetails),
		UserMenus:           repository.NewMemStore(schema.UserMenus),
		UserButtons:         repository.NewMemStore(schema.UserButtons),
		RoleMenus:           repository.NewMemStore(schema.RoleMenus),
		RoleButtons:         repository.NewMemStore(schema.RoleButtons),
		UserRoles:           repository.NewMemStore(schema.UserRoles),
	}
}

// Options — параметры проверки прав.
type Options struct {
	AdminRoles []string
	CacheSize  int
	CacheTTL   time.Duration
}

// Services — сервисный слой, готовый к подключению к HTTP.
type Services struct {
	Menus         *service.MenuService
	Buttons       *service.ButtonService
	Roles         *service.Records[model.Role]
	Users         *service.Records[model.User]
	Majors        *service.Records[model.Major]
	Permissions   *service.PermissionService
	OperationLogs *service.OperationLogService
	Importer      *service.Importer
}

// NewServices собирает сервисы над хранилищами. Все репозитории пишут
// журнал изменений через один audit.Writer; оба резолвера делят кэш.
func NewServices(stores Stores, opts Options, logger *slog.Logger) *Services {
	writer := audit.NewWriter(stores.OperationLogs, stores.OperationLogDetails, logger)

	menus := repository.NewRepository(stores.Menus, writer, logger)
	buttons := repository.NewRepository(stores.Buttons, writer, logger)
	roles := repository.NewRepository(stores.Roles, writer, logger)
	users := repository.NewRepository(stores.Users, writer, logger)
	majors := repository.NewRepository(stores.Majors, writer, logger)

	cache := permission.NewCache(opts.CacheSize, opts.CacheTTL)
	userResolver := permission.NewResolver(permission.SubjectUser, menus, buttons,
		stores.UserMenus, stores.UserButtons, cache, logger)
	roleResolver := permission.NewResolver(permission.SubjectRole, menus, buttons,
		stores.RoleMenus, stores.RoleButtons, cache, logger)
	checker := permission.NewChecker(userResolver, roleResolver, stores.UserRoles, opts.AdminRoles)

	menuSvc := service.NewMenuService(menus, logger)
	buttonSvc := service.NewButtonService(buttons, menus, logger)

	return &Services{
		Menus:   menuSvc,
		Buttons: buttonSvc,
		Roles:   service.NewRoleService(roles, logger),
		Users:   service.NewUserService(users, logger),
		Majors:  service.NewMajorService(majors, logger),
		Permissions: service.NewPermissionService(service.PermissionDeps{
			UserResolver: userResolver,
			RoleResolver: roleResolver,
			Checker:      checker,
			Users:        users,
			Roles:        roles,
			Menus:        menus,
			Buttons:      buttons,
			UserRoles:    stores.UserRoles,
		}, logger),
		OperationLogs: service.NewOperationLogService(stores.OperationLogs, stores.OperationLogDetails),
		Importer:      service.NewImporter(menuSvc, buttonSvc, logger),
	}
}
