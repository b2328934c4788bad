// Пакет schema — реестры полей всех сущностей Backoffice Module.
// Имена столбцов совпадают с миграциями internal/database/migrations.
package schema

import (
	"time"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/field"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
)

// Menus — реестр меню.
var Menus = field.New("Menu", "menus",
	func(m *model.Menu) *model.Record { return &m.Record },
	field.String("parentId", "parent_id", func(m *model.Menu) *string { return &m.ParentID }).Order(),
	field.String("name", "name", func(m *model.Menu) *string { return &m.Name }).Search().Order(),
	field.String("normalizedName", "normalized_name", func(m *model.Menu) *string { return &m.NormalizedName }).NoAudit(),
	field.NullString("title", "title", func(m *model.Menu) **string { return &m.Title }).Search().Order(),
	field.Int("level", "level", func(m *model.Menu) *int { return &m.Level }).Order(),
	field.String("sortCode", "sort_code", func(m *model.Menu) *string { return &m.SortCode }).Order(),
	field.NullString("icon", "icon", func(m *model.Menu) **string { return &m.Icon }),
	field.NullString("area", "area", func(m *model.Menu) **string { return &m.Area }).Search().Order(),
	field.NullString("normalizedArea", "normalized_area", func(m *model.Menu) **string { return &m.NormalizedArea }).NoAudit(),
	field.NullString("page", "page", func(m *model.Menu) **string { return &m.Page }).Search().Order(),
	field.NullString("normalizedPage", "normalized_page", func(m *model.Menu) **string { return &m.NormalizedPage }).NoAudit(),
)

// Buttons — реестр кнопок.
var Buttons = field.New("Button", "buttons",
	func(b *model.Button) *model.Record { return &b.Record },
	field.String("menuId", "menu_id", func(b *model.Button) *string { return &b.MenuID }).Order(),
	field.String("name", "name", func(b *model.Button) *string { return &b.Name }).Search().Order(),
	field.String("buttonGroup", "button_group", func(b *model.Button) *string { return (*string)(&b.ButtonGroup) }).Order(),
	field.String("buttonType", "button_type", func(b *model.Button) *string { return (*string)(&b.ButtonType) }).Order(),
	field.NullString("title", "title", func(b *model.Button) **string { return &b.Title }).Search().Order(),
	field.String("sortCode", "sort_code", func(b *model.Button) *string { return &b.SortCode }).Order(),
	field.Bool("isRight", "is_right", func(b *model.Button) *bool { return &b.IsRight }),
	field.NullString("css", "css", func(b *model.Button) **string { return &b.CSS }),
	field.NullString("icon", "icon", func(b *model.Button) **string { return &b.Icon }),
	field.NullString("jsEvent", "js_event", func(b *model.Button) **string { return &b.JSEvent }),
	field.NullString("area", "area", func(b *model.Button) **string { return &b.Area }).Search().Order(),
	field.NullString("normalizedArea", "normalized_area", func(b *model.Button) **string { return &b.NormalizedArea }).NoAudit(),
	field.NullString("url", "url", func(b *model.Button) **string { return &b.URL }).Search().Order(),
	field.NullString("normalizedUrl", "normalized_url", func(b *model.Button) **string { return &b.NormalizedURL }).NoAudit(),
)

// Roles — реестр ролей.
var Roles = field.New("Role", "roles",
	func(r *model.Role) *model.Record { return &r.Record },
	field.String("name", "name", func(r *model.Role) *string { return &r.Name }).Search().Order(),
	field.String("normalizedName", "normalized_name", func(r *model.Role) *string { return &r.NormalizedName }).NoAudit(),
)

// Users — реестр пользователей.
var Users = field.New("User", "users",
	func(u *model.User) *model.Record { return &u.Record },
	field.String("userName", "user_name", func(u *model.User) *string { return &u.UserName }).Search().Order(),
	field.String("normalizedUserName", "normalized_user_name", func(u *model.User) *string { return &u.NormalizedUserName }).NoAudit(),
	field.NullString("realName", "real_name", func(u *model.User) **string { return &u.RealName }).Search().Order(),
	field.NullString("email", "email", func(u *model.User) **string { return &u.Email }).Search().Order(),
	field.NullString("normalizedEmail", "normalized_email", func(u *model.User) **string { return &u.NormalizedEmail }).NoAudit(),
)

// Majors — реестр специальностей.
var Majors = field.New("Major", "majors",
	func(m *model.Major) *model.Record { return &m.Record },
	field.String("code", "code", func(m *model.Major) *string { return &m.Code }).Search().Order(),
	field.String("normalizedCode", "normalized_code", func(m *model.Major) *string { return &m.NormalizedCode }).NoAudit(),
	field.String("name", "name", func(m *model.Major) *string { return &m.Name }).Search().Order(),
	field.String("normalizedName", "normalized_name", func(m *model.Major) *string { return &m.NormalizedName }).NoAudit(),
	field.NullString("curriculumGroup", "curriculum_group", func(m *model.Major) **string { return &m.CurriculumGroup }).Search().Order(),
	field.NullString("level", "level", func(m *model.Major) **string { return &m.Level }).Search().Order(),
)

// OperationLogs — реестр заголовков журнала аудита.
var OperationLogs = field.NewPlain("OperationLog", "operation_logs", []string{"id"},
	field.String("id", "id", func(l *model.OperationLog) *string { return &l.ID }).Order(),
	field.String("entityName", "entity_name", func(l *model.OperationLog) *string { return &l.EntityName }).Search().Order(),
	field.String("tableName", "table_name", func(l *model.OperationLog) *string { return &l.TableName }).Search().Order(),
	field.String("kind", "kind", func(l *model.OperationLog) *string { return (*string)(&l.Kind) }).Search().Order(),
	field.NullString("userId", "user_id", func(l *model.OperationLog) **string { return &l.UserID }).Order(),
	field.NullString("userName", "user_name", func(l *model.OperationLog) **string { return &l.UserName }).Search().Order(),
	field.NullString("realName", "real_name", func(l *model.OperationLog) **string { return &l.RealName }).Search().Order(),
	field.NullString("clientIp", "client_ip", func(l *model.OperationLog) **string { return &l.ClientIP }).Search().Order(),
	field.Time("operatedAt", "operated_at", func(l *model.OperationLog) *time.Time { return &l.OperatedAt }).Order(),
)

// OperationLogDetails — реестр строк изменений полей.
var OperationLogDetails = field.NewPlain("OperationLogDetail", "operation_log_details", []string{"id"},
	field.String("id", "id", func(d *model.OperationLogDetail) *string { return &d.ID }).Order(),
	field.String("logId", "log_id", func(d *model.OperationLogDetail) *string { return &d.LogID }).Order(),
	field.String("fieldName", "field_name", func(d *model.OperationLogDetail) *string { return &d.FieldName }).Search().Order(),
	field.String("columnName", "column_name", func(d *model.OperationLogDetail) *string { return &d.ColumnName }).Order(),
	field.String("dataType", "data_type", func(d *model.OperationLogDetail) *string { return &d.DataType }),
	field.NullString("oldValue", "old_value", func(d *model.OperationLogDetail) **string { return &d.OldValue }).Search(),
	field.NullString("newValue", "new_value", func(d *model.OperationLogDetail) **string { return &d.NewValue }).Search(),
)

// assignments строит реестр таблицы связей с заданными столбцами субъекта
// и ресурса.
func assignments(entity, table, subjectColumn, resourceColumn string) *field.Registry[model.Assignment] {
	return field.NewPlain(entity, table, []string{"subjectId", "resourceId"},
		field.String("subjectId", subjectColumn, func(a *model.Assignment) *string { return &a.SubjectID }).Order(),
		field.String("resourceId", resourceColumn, func(a *model.Assignment) *string { return &a.ResourceID }).Order(),
		field.NullString("createdBy", "created_by", func(a *model.Assignment) **string { return &a.CreatedBy }),
		field.NullString("createdByName", "created_by_name", func(a *model.Assignment) **string { return &a.CreatedByName }),
		field.Time("createdAt", "created_at", func(a *model.Assignment) *time.Time { return &a.CreatedAt }).Order(),
	)
}

// Таблицы связей субъект↔ресурс.
var (
	UserMenus   = assignments("UserMenu", "user_menus", "user_id", "menu_id")
	UserButtons = assignments("UserButton", "user_buttons", "user_id", "button_id")
	RoleMenus   = assignments("RoleMenu", "role_menus", "role_id", "menu_id")
	RoleButtons = assignments("RoleButton", "role_buttons", "role_id", "button_id")
	UserRoles   = assignments("UserRole", "user_roles", "user_id", "role_id")
)
