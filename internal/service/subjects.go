// subjects.go — роли, пользователи и справочник специальностей.
package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// NewRoleService создаёт сервис ролей: имя обязательно и уникально
// без учёта регистра.
func NewRoleService(roles *repository.Repository[model.Role], logger *slog.Logger) *Records[model.Role] {
	return newRecords(roles, func(ctx context.Context, r *model.Role, _ *model.Role) error {
		r.Name = strings.TrimSpace(r.Name)
		r.Normalize()
		if err := required("name", r.Name); err != nil {
			return err
		}
		return unique(ctx, roles, r.ID, "normalizedName", r.NormalizedName, "name")
	}, logger)
}

// NewUserService создаёт сервис пользователей: логин обязателен и уникален,
// email (если задан) корректен и уникален.
func NewUserService(users *repository.Repository[model.User], logger *slog.Logger) *Records[model.User] {
	return newRecords(users, func(ctx context.Context, u *model.User, _ *model.User) error {
		u.UserName = strings.TrimSpace(u.UserName)
		if u.Email != nil && strings.TrimSpace(*u.Email) == "" {
			u.Email = nil
		}
		u.Normalize()

		if err := required("userName", u.UserName); err != nil {
			return err
		}
		if err := unique(ctx, users, u.ID, "normalizedUserName", u.NormalizedUserName, "userName"); err != nil {
			return err
		}
		if u.Email == nil {
			return nil
		}
		if _, err := mail.ParseAddress(*u.Email); err != nil {
			return invalid("email", "некорректный адрес")
		}
		return unique(ctx, users, u.ID, "normalizedEmail", *u.NormalizedEmail, "email")
	}, logger)
}

// NewMajorService создаёт сервис специальностей: код и название
// обязательны, код уникален.
func NewMajorService(majors *repository.Repository[model.Major], logger *slog.Logger) *Records[model.Major] {
	return newRecords(majors, func(ctx context.Context, m *model.Major, _ *model.Major) error {
		m.Code = strings.TrimSpace(m.Code)
		m.Name = strings.TrimSpace(m.Name)
		m.Normalize()

		if err := required("code", m.Code); err != nil {
			return err
		}
		if err := required("name", m.Name); err != nil {
			return err
		}
		return unique(ctx, majors, m.ID, "normalizedCode", m.NormalizedCode, "code")
	}, logger)
}
