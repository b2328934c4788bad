package permission

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
)

// NodeType — вид узла дерева авторизации.
type NodeType string

const (
	NodeMenu   NodeType = "Menu"
	NodeButton NodeType = "Button"
)

// TreeNode — узел дерева авторизации для виджета дерева в интерфейсе.
// У меню в Children сначала идут вложенные меню, затем кнопки.
type TreeNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     NodeType    `json:"type"`
	Level    int         `json:"level,omitempty"`
	Checked  bool        `json:"checked"`
	Icon     *string     `json:"icon,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildAuthorizationTree строит дерево неудалённых меню под parentID
// (model.RootID — от корня) с кнопками и отметкой назначенных субъекту
// ресурсов. Узлы одного уровня упорядочены по sortCode.
func (r *Resolver) BuildAuthorizationTree(ctx context.Context, subjectID, parentID string) ([]*TreeNode, error) {
	var (
		menus     []*model.Menu
		buttons   []*model.Button
		menuIDs   []string
		buttonIDs []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		menus, err = r.menus.FindMany(gctx, query.NotDeleted(), query.Ascending("sortCode"), query.Ascending("id"))
		return err
	})
	g.Go(func() error {
		var err error
		buttons, err = r.buttons.FindMany(gctx, query.NotDeleted(), query.Ascending("sortCode"), query.Ascending("id"))
		return err
	})
	g.Go(func() error {
		var err error
		menuIDs, err = r.AssignedIDs(gctx, subjectID, ResourceMenu)
		return err
	})
	g.Go(func() error {
		var err error
		buttonIDs, err = r.AssignedIDs(gctx, subjectID, ResourceButton)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ошибка загрузки данных дерева авторизации: %w", err)
	}

	b := treeBuilder{
		children:      make(map[string][]*model.Menu),
		buttons:       make(map[string][]*model.Button),
		checkedMenu:   toSet(menuIDs),
		checkedButton: toSet(buttonIDs),
		visited:       make(map[string]bool),
	}
	for _, m := range menus {
		b.children[m.ParentID] = append(b.children[m.ParentID], m)
	}
	for _, btn := range buttons {
		b.buttons[btn.MenuID] = append(b.buttons[btn.MenuID], btn)
	}
	return b.build(parentID), nil
}

type treeBuilder struct {
	children      map[string][]*model.Menu
	buttons       map[string][]*model.Button
	checkedMenu   map[string]bool
	checkedButton map[string]bool
	// visited обрывает циклы parentId.
	visited map[string]bool
}

func (b *treeBuilder) build(parentID string) []*TreeNode {
	menus := b.children[parentID]
	nodes := make([]*TreeNode, 0, len(menus))
	for _, m := range menus {
		if b.visited[m.ID] {
			continue
		}
		b.visited[m.ID] = true

		node := &TreeNode{
			ID:      m.ID,
			Name:    m.Name,
			Type:    NodeMenu,
			Level:   m.Level,
			Checked: b.checkedMenu[m.ID],
			Icon:    m.Icon,
		}
		node.Children = append(node.Children, b.build(m.ID)...)
		for _, btn := range b.buttons[m.ID] {
			node.Children = append(node.Children, &TreeNode{
				ID:      btn.ID,
				Name:    btn.Name,
				Type:    NodeButton,
				Checked: b.checkedButton[btn.ID],
			})
		}
		if len(node.Children) == 0 {
			node.Children = nil
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
