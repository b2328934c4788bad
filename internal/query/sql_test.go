package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/schema"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		p         Predicate
		start     int
		wantWhere string
		wantArgs  []any
	}{
		{
			name: "nil",
		},
		{
			name:      "eq",
			p:         Where("name", "Root"),
			start:     1,
			wantWhere: "name = $1",
			wantArgs:  []any{"Root"},
		},
		{
			name:      "eq nil",
			p:         Where("area", nil),
			start:     1,
			wantWhere: "area IS NULL",
		},
		{
			name:      "нумерация с заданного параметра",
			p:         AllOf(NotDeleted(), Where("parentId", model.RootID)),
			start:     3,
			wantWhere: "(is_deleted = $3) AND (parent_id = $4)",
			wantArgs:  []any{false, ""},
		},
		{
			name:      "in",
			p:         InStrings("id", []string{"a", "b"}),
			start:     1,
			wantWhere: "id IN ($1, $2)",
			wantArgs:  []any{"a", "b"},
		},
		{
			name:      "пустой in",
			p:         In{Field: "id"},
			start:     1,
			wantWhere: "FALSE",
		},
		{
			name:      "contains экранирует шаблон",
			p:         Or{Contains{Field: "name", Term: "50%_a"}, Contains{Field: "page", Term: `x\y`}},
			start:     1,
			wantWhere: "(name ILIKE $1) OR (page ILIKE $2)",
			wantArgs:  []any{`%50\%\_a%`, `%x\\y%`},
		},
		{
			name:      "not",
			p:         Not{P: Where("level", 1)},
			start:     1,
			wantWhere: "NOT (level = $1)",
			wantArgs:  []any{1},
		},
		{
			name:      "пустые and/or",
			p:         And{And{}, Or{}},
			start:     1,
			wantWhere: "(TRUE) AND (FALSE)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compile(schema.Menus, tt.p, tt.start)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if got.Where != tt.wantWhere {
				t.Errorf("Where: хотели %q, получили %q", tt.wantWhere, got.Where)
			}
			if diff := cmp.Diff(tt.wantArgs, got.Args); diff != "" {
				t.Errorf("Args (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	if _, err := Compile(schema.Menus, Where("name; DROP TABLE menus", "x"), 1); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ожидалась ErrUnknownField, получили %v", err)
	}
	if _, err := Compile(schema.Menus, Contains{Field: "level", Term: "1"}, 1); !errors.Is(err, ErrFieldType) {
		t.Errorf("ожидалась ErrFieldType, получили %v", err)
	}
}

func TestOrderBy(t *testing.T) {
	got, err := OrderBy(schema.Menus, []Sort{Ascending("SortCode"), Descending("createdAt")})
	if err != nil {
		t.Fatalf("OrderBy: %v", err)
	}
	if want := `ORDER BY LOWER(sort_code) COLLATE "C" ASC, sort_code COLLATE "C" ASC, created_at DESC`; got != want {
		t.Errorf("хотели %q, получили %q", want, got)
	}

	got, err = OrderBy(schema.Menus, []Sort{Ascending("area"), Descending("page"), Ascending("level")})
	if err != nil {
		t.Fatalf("OrderBy: %v", err)
	}
	want := `ORDER BY LOWER(area) COLLATE "C" ASC NULLS FIRST, area COLLATE "C" ASC, ` +
		`LOWER(page) COLLATE "C" DESC NULLS LAST, page COLLATE "C" DESC, level ASC`
	if got != want {
		t.Errorf("хотели %q, получили %q", want, got)
	}

	if _, err := OrderBy(schema.Menus, []Sort{Ascending("x")}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ожидалась ErrUnknownField, получили %v", err)
	}
}

// Порядок в памяти должен совпадать с тем, что строит OrderBy:
// NULL первыми при ASC и последними при DESC, регистр не учитывается.
func TestSortRows_MatchesOrderBy(t *testing.T) {
	rows := []*model.Menu{
		{Name: "b", Area: model.Ref("beta")},
		{Name: "nil"},
		{Name: "A", Area: model.Ref("Alpha")},
		{Name: "a", Area: model.Ref("alpha")},
	}
	names := func() []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.Name
		}
		return out
	}

	if err := SortRows(schema.Menus, rows, []Sort{Ascending("area"), Ascending("name")}); err != nil {
		t.Fatalf("SortRows: %v", err)
	}
	if diff := cmp.Diff([]string{"nil", "A", "a", "b"}, names()); diff != "" {
		t.Errorf("ASC (-want +got):\n%s", diff)
	}

	if err := SortRows(schema.Menus, rows, []Sort{Descending("area")}); err != nil {
		t.Fatalf("SortRows: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a", "A", "nil"}, names()); diff != "" {
		t.Errorf("DESC (-want +got):\n%s", diff)
	}
}

func TestMatch(t *testing.T) {
	m := &model.Menu{Name: "Settings", Level: 2, Area: model.Ref("Admin")}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"nil — все", nil, true},
		{"eq", Where("name", "Settings"), true},
		{"eq учитывает регистр", Where("name", "settings"), false},
		{"eq nil по пустому полю", Where("page", nil), true},
		{"eq nil по заполненному полю", Where("area", nil), false},
		{"contains без учёта регистра", Contains{Field: "area", Term: "DMI"}, true},
		{"contains по пустому полю", Contains{Field: "page", Term: ""}, false},
		{"in", In{Field: "level", Values: []any{1, 2}}, true},
		{"пустой and", And{}, true},
		{"пустой or", Or{}, false},
		{"not", Not{P: Where("level", 2)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(schema.Menus, tt.p, m)
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if got != tt.want {
				t.Errorf("хотели %v, получили %v", tt.want, got)
			}
		})
	}
}
