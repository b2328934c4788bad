package model

import "time"

// Role — роль, которой назначаются меню и кнопки.
type Role struct {
	Record

	Name           string `json:"name"`
	NormalizedName string `json:"normalizedName"`
}

// Normalize обновляет стандартные значения полей роли.
func (r *Role) Normalize() {
	r.NormalizedName = Normalize(r.Name)
}

// User — пользователь Backoffice. Пароли и вход — вне модуля (IdP).
type User struct {
	Record

	UserName           string  `json:"userName"`
	NormalizedUserName string  `json:"normalizedUserName"`
	RealName           *string `json:"realName,omitempty"`
	Email              *string `json:"email,omitempty"`
	NormalizedEmail    *string `json:"normalizedEmail,omitempty"`
}

// Normalize обновляет стандартные значения полей пользователя.
func (u *User) Normalize() {
	u.NormalizedUserName = Normalize(u.UserName)
	u.NormalizedEmail = NormalizeRef(u.Email)
}

// Major — специальность (справочник учебной части).
type Major struct {
	Record

	Code            string  `json:"code"`
	NormalizedCode  string  `json:"normalizedCode"`
	Name            string  `json:"name"`
	NormalizedName  string  `json:"normalizedName"`
	CurriculumGroup *string `json:"curriculumGroup,omitempty"`
	Level           *string `json:"level,omitempty"`
}

// Normalize обновляет стандартные значения полей специальности.
func (m *Major) Normalize() {
	m.NormalizedCode = Normalize(m.Code)
	m.NormalizedName = Normalize(m.Name)
}

// Assignment — связь субъект↔ресурс (user/role × menu/button, user × role).
// Несёт только штамп создания: связи создаются и удаляются, но не
// удаляются мягко.
type Assignment struct {
	SubjectID     string    `json:"subjectId"`
	ResourceID    string    `json:"resourceId"`
	CreatedBy     *string   `json:"createdBy,omitempty"`
	CreatedByName *string   `json:"createdByName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
