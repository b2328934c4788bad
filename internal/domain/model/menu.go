package model

// Menu — узел иерархии меню.
type Menu struct {
	Record

	// ParentID — родительское меню; RootID для узлов верхнего уровня.
	ParentID       string  `json:"parentId"`
	Name           string  `json:"name"`
	NormalizedName string  `json:"normalizedName"`
	Title          *string `json:"title,omitempty"`
	// Level — глубина: 1 для дочерних узлов корня.
	Level int `json:"level"`
	// SortCode — строковый иерархический ключ сортировки.
	SortCode       string  `json:"sortCode"`
	Icon           *string `json:"icon,omitempty"`
	Area           *string `json:"area,omitempty"`
	NormalizedArea *string `json:"normalizedArea,omitempty"`
	Page           *string `json:"page,omitempty"`
	NormalizedPage *string `json:"normalizedPage,omitempty"`
}

// Normalize обновляет стандартные значения полей меню.
func (m *Menu) Normalize() {
	m.NormalizedName = Normalize(m.Name)
	m.NormalizedArea = NormalizeRef(m.Area)
	m.NormalizedPage = NormalizeRef(m.Page)
}

// ButtonGroup — расположение кнопки на странице.
type ButtonGroup string

const (
	ButtonGroupHeader ButtonGroup = "Header"
	ButtonGroupTable  ButtonGroup = "Table"
	ButtonGroupRight  ButtonGroup = "Right"
	ButtonGroupOther  ButtonGroup = "Other"
)

// Valid сообщает, является ли значение допустимой группой.
func (g ButtonGroup) Valid() bool {
	switch g {
	case ButtonGroupHeader, ButtonGroupTable, ButtonGroupRight, ButtonGroupOther:
		return true
	}
	return false
}

// ButtonType — классификация операции кнопки.
type ButtonType string

const (
	ButtonTypeCreate   ButtonType = "Create"
	ButtonTypeImport   ButtonType = "Import"
	ButtonTypeDetail   ButtonType = "Detail"
	ButtonTypeEdit     ButtonType = "Edit"
	ButtonTypeDelete   ButtonType = "Delete"
	ButtonTypeRecovery ButtonType = "Recovery"
	ButtonTypeRemove   ButtonType = "Remove"
	ButtonTypeExport   ButtonType = "Export"
	ButtonTypePermit   ButtonType = "Permit"
	ButtonTypeRelate   ButtonType = "Relate"
	ButtonTypeClean    ButtonType = "Clean"
	ButtonTypeOther    ButtonType = "Other"
)

var buttonTypes = map[ButtonType]bool{
	ButtonTypeCreate: true, ButtonTypeImport: true, ButtonTypeDetail: true,
	ButtonTypeEdit: true, ButtonTypeDelete: true, ButtonTypeRecovery: true,
	ButtonTypeRemove: true, ButtonTypeExport: true, ButtonTypePermit: true,
	ButtonTypeRelate: true, ButtonTypeClean: true, ButtonTypeOther: true,
}

// Valid сообщает, является ли значение допустимым типом кнопки.
func (t ButtonType) Valid() bool {
	return buttonTypes[t]
}

// Button — операционная кнопка, принадлежащая одному меню.
type Button struct {
	Record

	MenuID      string      `json:"menuId"`
	Name        string      `json:"name"`
	ButtonGroup ButtonGroup `json:"buttonGroup"`
	ButtonType  ButtonType  `json:"buttonType"`
	Title       *string     `json:"title,omitempty"`
	SortCode    string      `json:"sortCode"`
	// IsRight — кнопка выводится справа в строке таблицы.
	IsRight        bool    `json:"isRight"`
	CSS            *string `json:"css,omitempty"`
	Icon           *string `json:"icon,omitempty"`
	JSEvent        *string `json:"jsEvent,omitempty"`
	Area           *string `json:"area,omitempty"`
	NormalizedArea *string `json:"normalizedArea,omitempty"`
	URL            *string `json:"url,omitempty"`
	NormalizedURL  *string `json:"normalizedUrl,omitempty"`
}

// Normalize обновляет стандартные значения полей кнопки.
func (b *Button) Normalize() {
	b.NormalizedArea = NormalizeRef(b.Area)
	b.NormalizedURL = NormalizeRef(b.URL)
}
