// import.go — импорт меню и кнопок из YAML/TOML.
// Родитель меню и меню кнопки задаются по имени; записи создаются через
// Import (вид операции Import в журнале).
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// ImportMenu — меню в файле импорта. Пустой Parent — корень.
type ImportMenu struct {
	Name        string `yaml:"name" toml:"name"`
	Parent      string `yaml:"parent" toml:"parent"`
	Title       string `yaml:"title" toml:"title"`
	Icon        string `yaml:"icon" toml:"icon"`
	Area        string `yaml:"area" toml:"area"`
	Page        string `yaml:"page" toml:"page"`
	Description string `yaml:"description" toml:"description"`
}

// ImportButton — кнопка в файле импорта, привязанная к меню по имени.
type ImportButton struct {
	Menu        string `yaml:"menu" toml:"menu"`
	Name        string `yaml:"name" toml:"name"`
	Title       string `yaml:"title" toml:"title"`
	Group       string `yaml:"group" toml:"group"`
	Type        string `yaml:"type" toml:"type"`
	IsRight     bool   `yaml:"isRight" toml:"isRight"`
	CSS         string `yaml:"css" toml:"css"`
	Icon        string `yaml:"icon" toml:"icon"`
	JSEvent     string `yaml:"jsEvent" toml:"jsEvent"`
	Area        string `yaml:"area" toml:"area"`
	URL         string `yaml:"url" toml:"url"`
	Description string `yaml:"description" toml:"description"`
}

// ImportDocument — содержимое файла импорта.
type ImportDocument struct {
	Menus   []ImportMenu   `yaml:"menus" toml:"menus"`
	Buttons []ImportButton `yaml:"buttons" toml:"buttons"`
}

// ImportResult — итог импорта.
type ImportResult struct {
	MenusCreated   int `json:"menusCreated"`
	ButtonsCreated int `json:"buttonsCreated"`
	Skipped        int `json:"skipped"`
}

// DecodeImport читает документ импорта; формат определяется по расширению
// имени файла (.yaml, .yml, .toml).
func DecodeImport(name string, r io.Reader) (*ImportDocument, error) {
	var doc ImportDocument
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
		}
	case ".toml":
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("ошибка разбора TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("неподдерживаемый формат файла импорта %q", ext)
	}
	return &doc, nil
}

// Importer импортирует меню и кнопки.
type Importer struct {
	menus   *MenuService
	buttons *ButtonService
	logger  *slog.Logger
}

// NewImporter создаёт Importer.
func NewImporter(menus *MenuService, buttons *ButtonService, logger *slog.Logger) *Importer {
	return &Importer{menus: menus, buttons: buttons, logger: logger.With(slog.String("component", "import"))}
}

// Import создаёт отсутствующие меню и кнопки документа. Меню, уже
// существующие по имени, и кнопки, уже существующие в своём меню по
// имени, пропускаются. Меню обрабатываются в несколько проходов, так что
// порядок родителей и детей в файле не важен.
func (im *Importer) Import(ctx context.Context, actor model.Actor, doc *ImportDocument) (*ImportResult, error) {
	res := &ImportResult{}

	pending := doc.Menus
	for len(pending) > 0 {
		var next []ImportMenu
		for _, in := range pending {
			created, err := im.importMenu(ctx, actor, in)
			switch {
			case errors.Is(err, errParentPending):
				next = append(next, in)
			case err != nil:
				return res, fmt.Errorf("меню %q: %w", in.Name, err)
			case created:
				res.MenusCreated++
			default:
				res.Skipped++
			}
		}
		if len(next) == len(pending) {
			return res, fmt.Errorf("меню %q: %w", next[0].Name, invalid("parent", fmt.Sprintf("родительское меню %q не найдено", next[0].Parent)))
		}
		pending = next
	}

	for _, in := range doc.Buttons {
		created, err := im.importButton(ctx, actor, in)
		if err != nil {
			return res, fmt.Errorf("кнопка %q: %w", in.Name, err)
		}
		if created {
			res.ButtonsCreated++
		} else {
			res.Skipped++
		}
	}

	im.logger.Info("Импорт меню завершён",
		slog.Int("menus_created", res.MenusCreated),
		slog.Int("buttons_created", res.ButtonsCreated),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

var errParentPending = errors.New("родитель ещё не создан")

func (im *Importer) menuByName(ctx context.Context, name string) (*model.Menu, error) {
	m, err := im.menus.menus.FindOne(ctx, query.Where("normalizedName", model.Normalize(name)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

func (im *Importer) importMenu(ctx context.Context, actor model.Actor, in ImportMenu) (bool, error) {
	existing, err := im.menuByName(ctx, in.Name)
	if err != nil || existing != nil {
		return false, err
	}

	parentID := model.RootID
	if strings.TrimSpace(in.Parent) != "" {
		parent, err := im.menuByName(ctx, in.Parent)
		if err != nil {
			return false, err
		}
		if parent == nil {
			return false, errParentPending
		}
		parentID = parent.ID
	}

	m := &model.Menu{
		ParentID: parentID,
		Name:     in.Name,
		Title:    model.Ref(in.Title),
		Icon:     model.Ref(in.Icon),
		Area:     model.Ref(in.Area),
		Page:     model.Ref(in.Page),
	}
	m.Description = model.Ref(in.Description)
	if err := im.menus.Import(ctx, actor, m); err != nil {
		return false, err
	}
	return true, nil
}

func (im *Importer) importButton(ctx context.Context, actor model.Actor, in ImportButton) (bool, error) {
	menu, err := im.menuByName(ctx, in.Menu)
	if err != nil {
		return false, err
	}
	if menu == nil {
		return false, invalid("menu", fmt.Sprintf("меню %q не найдено", in.Menu))
	}

	exists, err := im.buttons.buttons.Exists(ctx, query.AllOf(
		query.Where("menuId", menu.ID),
		query.Where("name", strings.TrimSpace(in.Name)),
	))
	if err != nil || exists {
		return false, err
	}

	b := &model.Button{
		MenuID:      menu.ID,
		Name:        in.Name,
		ButtonGroup: model.ButtonGroup(in.Group),
		ButtonType:  model.ButtonType(in.Type),
		Title:       model.Ref(in.Title),
		IsRight:     in.IsRight,
		CSS:         model.Ref(in.CSS),
		Icon:        model.Ref(in.Icon),
		JSEvent:     model.Ref(in.JSEvent),
		Area:        model.Ref(in.Area),
		URL:         model.Ref(in.URL),
	}
	b.Description = model.Ref(in.Description)
	if err := im.buttons.Import(ctx, actor, b); err != nil {
		return false, err
	}
	return true, nil
}
