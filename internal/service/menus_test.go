package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bigkaa/goartstore/backoffice-module/internal/audit"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/schema"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

var testActor = model.Actor{ID: "u-1", UserName: "admin"}

// testEnv — сервисы над хранилищами в памяти.
type testEnv struct {
	logs    *repository.MemStore[model.OperationLog]
	details *repository.MemStore[model.OperationLogDetail]
	menus   *MenuService
	buttons *ButtonService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logs := repository.NewMemStore(schema.OperationLogs)
	details := repository.NewMemStore(schema.OperationLogDetails)
	writer := audit.NewWriter(logs, details, logger)

	menus := repository.NewRepository(repository.NewMemStore(schema.Menus), writer, logger)
	buttons := repository.NewRepository(repository.NewMemStore(schema.Buttons), writer, logger)
	return &testEnv{
		logs:    logs,
		details: details,
		menus:   NewMenuService(menus, logger),
		buttons: NewButtonService(buttons, menus, logger),
	}
}

func (e *testEnv) menu(t *testing.T, parentID, name string) *model.Menu {
	t.Helper()
	m := &model.Menu{ParentID: parentID, Name: name}
	if err := e.menus.Create(context.Background(), testActor, m); err != nil {
		t.Fatalf("Create menu %s: %v", name, err)
	}
	return m
}

func TestMenu_LevelAndSortCode(t *testing.T) {
	env := newTestEnv(t)

	a := env.menu(t, model.RootID, "A")
	b := env.menu(t, model.RootID, "B")
	c := env.menu(t, model.RootID, "C")
	c1 := env.menu(t, c.ID, "C1")
	c2 := env.menu(t, c.ID, "C2")
	c11 := env.menu(t, c1.ID, "C11")

	tests := []struct {
		menu      *model.Menu
		wantLevel int
		wantCode  string
	}{
		{a, 1, "1"},
		{b, 1, "2"},
		{c, 1, "3"},
		{c1, 2, "301"},
		{c2, 2, "302"},
		{c11, 3, "30101"},
	}
	for _, tt := range tests {
		if tt.menu.Level != tt.wantLevel || tt.menu.SortCode != tt.wantCode {
			t.Errorf("%s: хотели level=%d sortCode=%s, получили level=%d sortCode=%s",
				tt.menu.Name, tt.wantLevel, tt.wantCode, tt.menu.Level, tt.menu.SortCode)
		}
	}
}

func TestMenu_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.menu(t, model.RootID, "Settings")
	withPage := &model.Menu{Name: "Users", Area: model.Ref("Admin"), Page: model.Ref("Users")}
	if err := env.menus.Create(ctx, testActor, withPage); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name      string
		menu      *model.Menu
		wantField string
	}{
		{"пустое имя", &model.Menu{Name: "  "}, "name"},
		{"имя без учёта регистра", &model.Menu{Name: "SETTINGS"}, "name"},
		{"area+page", &model.Menu{Name: "Other", Area: model.Ref("admin"), Page: model.Ref(" users")}, "page"},
		{"нет родителя", &model.Menu{Name: "Orphan", ParentID: "missing"}, "parentId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.menus.Create(ctx, testActor, tt.menu)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ожидалась ValidationError, получили %v", err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("ValidationError должна разворачиваться в ErrValidation")
			}
			if verr.Field != tt.wantField {
				t.Errorf("поле: хотели %s, получили %s", tt.wantField, verr.Field)
			}
		})
	}

	// Обновление меню без смены имени не конфликтует само с собой.
	root.Title = model.Ref("Настройки")
	if err := env.menus.Update(ctx, testActor, root); err != nil {
		t.Errorf("Update: %v", err)
	}
	if root.SortCode != "1" {
		t.Errorf("код сортировки не должен меняться без смены родителя: %s", root.SortCode)
	}
}

func TestMenu_Cycle(t *testing.T) {
	env := newTestEnv(t)
	a := env.menu(t, model.RootID, "A")
	b := env.menu(t, a.ID, "B")

	a.ParentID = b.ID
	err := env.menus.Update(context.Background(), testActor, a)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "parentId" {
		t.Errorf("ожидалась ValidationError по parentId, получили %v", err)
	}
}

func TestMenu_MoveRecomputesPlacement(t *testing.T) {
	env := newTestEnv(t)
	a := env.menu(t, model.RootID, "A")
	b := env.menu(t, model.RootID, "B")
	env.menu(t, b.ID, "B1")

	a.ParentID = b.ID
	if err := env.menus.Update(context.Background(), testActor, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if a.Level != 2 || a.SortCode != "202" {
		t.Errorf("после переноса: хотели level=2 sortCode=202, получили level=%d sortCode=%s", a.Level, a.SortCode)
	}
}

func TestMenu_MoveRelocatesSubtree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.menu(t, model.RootID, "A")
	b := env.menu(t, model.RootID, "B")
	c := env.menu(t, b.ID, "C")
	d := env.menu(t, c.ID, "D")
	c2 := env.menu(t, b.ID, "C2")

	before, _ := env.logs.CountLong(ctx, query.Where("kind", string(model.OperationUpdate)))

	b.ParentID = a.ID
	if err := env.menus.Update(ctx, testActor, b); err != nil {
		t.Fatalf("Update: %v", err)
	}

	type placement struct {
		Level    int
		SortCode string
	}
	got := map[string]placement{}
	for _, m := range []*model.Menu{b, c, d, c2} {
		stored, err := env.menus.Get(ctx, m.ID)
		if err != nil {
			t.Fatalf("Get %s: %v", m.Name, err)
		}
		got[stored.Name] = placement{stored.Level, stored.SortCode}
	}
	want := map[string]placement{
		"B":  {2, "101"},
		"C":  {3, "10101"},
		"D":  {4, "1010101"},
		"C2": {3, "10102"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("размещение после переноса (-want +got):\n%s", diff)
	}

	// Перенос B и трёх потомков — четыре записи Update в журнале.
	after, _ := env.logs.CountLong(ctx, query.Where("kind", string(model.OperationUpdate)))
	if after-before != 4 {
		t.Errorf("журнал: хотели 4 записи Update, получили %d", after-before)
	}
	n, _ := env.details.CountLong(ctx, query.AllOf(
		query.Where("fieldName", "sortCode"),
		query.Where("newValue", "1010101"),
	))
	if n != 1 {
		t.Errorf("журнал: нет изменения sortCode для D, строк %d", n)
	}
}

func TestMenu_Tree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.menu(t, model.RootID, "A")
	a1 := env.menu(t, a.ID, "A1")
	env.menu(t, model.RootID, "B")

	if _, err := env.menus.Delete(ctx, testActor, a1.ID, a1.ConcurrencyStamp); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	tree, err := env.menus.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	type flat struct {
		Name    string
		Deleted bool
		Kids    []string
	}
	var got []flat
	for _, n := range tree {
		f := flat{Name: n.Name, Deleted: n.IsDeleted}
		for _, c := range n.Children {
			f.Kids = append(f.Kids, c.Name)
			if !c.IsDeleted {
				t.Errorf("%s: ожидалась пометка удаления", c.Name)
			}
		}
		got = append(got, f)
	}
	want := []flat{{Name: "A", Kids: []string{"A1"}}, {Name: "B"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("дерево (-want +got):\n%s", diff)
	}
}

func TestButton_PrepareAndAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	menu := env.menu(t, model.RootID, "A")

	b1 := &model.Button{MenuID: menu.ID, Name: "Create", ButtonType: model.ButtonTypeCreate,
		Area: model.Ref("Admin"), URL: model.Ref("/a/create")}
	if err := env.buttons.Create(ctx, testActor, b1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b2 := &model.Button{MenuID: menu.ID, Name: "Edit"}
	if err := env.buttons.Create(ctx, testActor, b2); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if b1.SortCode != "101" || b2.SortCode != "102" {
		t.Errorf("коды кнопок: хотели 101/102, получили %s/%s", b1.SortCode, b2.SortCode)
	}
	if b2.ButtonGroup != model.ButtonGroupOther || b2.ButtonType != model.ButtonTypeOther {
		t.Errorf("группа и тип по умолчанию: получили %s/%s", b2.ButtonGroup, b2.ButtonType)
	}
	if b1.NormalizedURL == nil || *b1.NormalizedURL != "/A/CREATE" {
		t.Errorf("NormalizedURL: получили %v", b1.NormalizedURL)
	}

	bad := &model.Button{MenuID: menu.ID, Name: "X", ButtonType: "Launch"}
	if err := env.buttons.Create(ctx, testActor, bad); !errors.Is(err, ErrValidation) {
		t.Errorf("недопустимый тип: ожидалась ErrValidation, получили %v", err)
	}
	dup := &model.Button{MenuID: menu.ID, Name: "Y", Area: model.Ref("admin"), URL: model.Ref("/A/Create")}
	if err := env.buttons.Create(ctx, testActor, dup); !errors.Is(err, ErrValidation) {
		t.Errorf("повтор area+url: ожидалась ErrValidation, получили %v", err)
	}
	orphan := &model.Button{MenuID: "missing", Name: "Z"}
	if err := env.buttons.Create(ctx, testActor, orphan); !errors.Is(err, ErrValidation) {
		t.Errorf("нет меню: ожидалась ErrValidation, получили %v", err)
	}

	// Журнал: заголовки для 1 меню и 2 кнопок.
	n, _ := env.logs.CountLong(ctx, query.Where("kind", string(model.OperationCreate)))
	if n != 3 {
		t.Errorf("заголовков Create: хотели 3, получили %d", n)
	}
}

// Переход без токена не должен проходить поверх параллельного изменения.
func TestRecords_TransitionsRequireStamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.menu(t, model.RootID, "A")

	other := *m
	other.Name = "A2"
	if err := env.menus.Update(ctx, testActor, &other); err != nil {
		t.Fatalf("Update: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"delete", func() error { _, err := env.menus.Delete(ctx, testActor, m.ID, ""); return err }},
		{"recover", func() error { _, err := env.menus.Recover(ctx, testActor, m.ID, ""); return err }},
		{"remove", func() error { return env.menus.Remove(ctx, testActor, m.ID, "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != "concurrencyStamp" {
				t.Fatalf("ожидалась ошибка валидации concurrencyStamp, получили %v", err)
			}
		})
	}

	if _, err := env.menus.Delete(ctx, testActor, m.ID, m.ConcurrencyStamp); !errors.Is(err, repository.ErrConcurrencyConflict) {
		t.Errorf("токен до изменения: ожидалась ErrConcurrencyConflict, получили %v", err)
	}
	got, err := env.menus.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.IsDeleted || got.Name != "A2" {
		t.Errorf("запись не должна меняться: %+v", got)
	}
}

func TestRecords_Transitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.menu(t, model.RootID, "A")

	if _, err := env.menus.Delete(ctx, testActor, m.ID, "stale"); !errors.Is(err, repository.ErrConcurrencyConflict) {
		t.Fatalf("устаревший токен: ожидалась ErrConcurrencyConflict, получили %v", err)
	}
	deleted, err := env.menus.Delete(ctx, testActor, m.ID, m.ConcurrencyStamp)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	recovered, err := env.menus.Recover(ctx, testActor, m.ID, deleted.ConcurrencyStamp)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if recovered.IsDeleted {
		t.Error("после Recover запись должна быть активной")
	}
	if err := env.menus.Remove(ctx, testActor, m.ID, recovered.ConcurrencyStamp); !errors.Is(err, repository.ErrNotDeleted) {
		t.Errorf("Remove активной: ожидалась ErrNotDeleted, получили %v", err)
	}
	if _, err := env.menus.Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Get: ожидалась ErrNotFound, получили %v", err)
	}
}

const importYAML = `
menus:
  - name: Users
    parent: System
    area: Admin
    page: Users
  - name: System
    icon: gear
buttons:
  - menu: Users
    name: Create
    type: Create
    group: Header
    area: Admin
    url: /users/create
`

const importTOML = `
[[menus]]
name = "System"
icon = "gear"

[[menus]]
name = "Users"
parent = "System"
area = "Admin"
page = "Users"

[[buttons]]
menu = "Users"
name = "Create"
type = "Create"
group = "Header"
area = "Admin"
url = "/users/create"
`

func TestImport(t *testing.T) {
	tests := []struct {
		file string
		body string
	}{
		{"menus.yaml", importYAML},
		{"menus.toml", importTOML},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			im := NewImporter(env.menus, env.buttons, slog.New(slog.NewTextHandler(io.Discard, nil)))

			doc, err := DecodeImport(tt.file, strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("DecodeImport: %v", err)
			}
			res, err := im.Import(ctx, model.System, doc)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if diff := cmp.Diff(&ImportResult{MenusCreated: 2, ButtonsCreated: 1}, res); diff != "" {
				t.Errorf("итог (-want +got):\n%s", diff)
			}

			users, err := env.menus.Repository().FindOne(ctx, query.Where("normalizedName", "USERS"))
			if err != nil {
				t.Fatalf("FindOne: %v", err)
			}
			if users.Level != 2 || users.SortCode != "101" {
				t.Errorf("Users: level=%d sortCode=%s", users.Level, users.SortCode)
			}

			n, _ := env.logs.CountLong(ctx, query.Where("kind", string(model.OperationImport)))
			if n != 3 {
				t.Errorf("заголовков Import: хотели 3, получили %d", n)
			}

			// Повторный импорт ничего не создаёт.
			res, err = im.Import(ctx, model.System, doc)
			if err != nil {
				t.Fatalf("повторный Import: %v", err)
			}
			if res.MenusCreated != 0 || res.ButtonsCreated != 0 || res.Skipped != 3 {
				t.Errorf("повторный импорт: %+v", res)
			}
		})
	}
}

func TestImport_UnknownParent(t *testing.T) {
	env := newTestEnv(t)
	im := NewImporter(env.menus, env.buttons, slog.New(slog.NewTextHandler(io.Discard, nil)))

	doc := &ImportDocument{Menus: []ImportMenu{{Name: "Lost", Parent: "Nowhere"}}}
	if _, err := im.Import(context.Background(), model.System, doc); !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получили %v", err)
	}
}

func TestDecodeImport_UnknownFormat(t *testing.T) {
	if _, err := DecodeImport("menus.json", strings.NewReader("{}")); err == nil {
		t.Error("ожидалась ошибка для неподдерживаемого формата")
	}
}
