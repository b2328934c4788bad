package query

import "strings"

// DefaultPageLength — размер страницы, если клиент его не передал.
const DefaultPageLength = 10

// DataTableColumn — столбец в формате DataTables.
type DataTableColumn struct {
	Data       string `json:"data"`
	Name       string `json:"name"`
	Searchable bool   `json:"searchable"`
	Orderable  bool   `json:"orderable"`
}

// DataTableOrder — ключ сортировки: индекс столбца и направление.
type DataTableOrder struct {
	Column int    `json:"column"`
	Dir    string `json:"dir"`
}

// DataTableSearch — строка поиска.
type DataTableSearch struct {
	Value string `json:"value"`
}

// DataTableRequest — тело запроса постраничной выборки.
type DataTableRequest struct {
	Draw    int               `json:"draw"`
	Columns []DataTableColumn `json:"columns"`
	Order   []DataTableOrder  `json:"order"`
	Start   int               `json:"start"`
	// Length — размер страницы; nil — DefaultPageLength, -1 — все строки.
	Length *int             `json:"length"`
	Search *DataTableSearch `json:"search"`
}

// DataTableResult — ответ постраничной выборки.
type DataTableResult[T any] struct {
	Draw            int   `json:"draw"`
	RecordsTotal    int64 `json:"recordsTotal"`
	RecordsFiltered int64 `json:"recordsFiltered"`
	Data            []*T  `json:"data"`
}

// ToRequest переводит запрос DataTables в Request.
// Ключи сортировки с индексом вне списка столбцов отбрасываются.
func (d DataTableRequest) ToRequest() Request {
	req := Request{Skip: d.Start, Take: DefaultPageLength}
	if d.Length != nil {
		req.Take = *d.Length
	}
	if d.Search != nil {
		req.Search = strings.TrimSpace(d.Search.Value)
	}

	req.Columns = make([]Column, 0, len(d.Columns))
	for _, c := range d.Columns {
		name := c.Data
		if name == "" {
			name = c.Name
		}
		req.Columns = append(req.Columns, Column{
			Field:      name,
			Searchable: c.Searchable,
			Orderable:  c.Orderable,
		})
	}

	for _, o := range d.Order {
		if o.Column < 0 || o.Column >= len(req.Columns) {
			continue
		}
		req.Sort = append(req.Sort, Sort{
			Field: req.Columns[o.Column].Field,
			Desc:  strings.EqualFold(o.Dir, "desc"),
		})
	}
	return req
}

// NewDataTableResult формирует ответ из страницы.
func NewDataTableResult[T any](draw int, p *Page[T]) DataTableResult[T] {
	return DataTableResult[T]{
		Draw:            draw,
		RecordsTotal:    p.Total,
		RecordsFiltered: p.Filtered,
		Data:            p.Rows,
	}
}
