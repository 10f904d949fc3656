package domain

import "strings"

// BreadcrumbSeparator разделяет элементы хлебных крошек.
const BreadcrumbSeparator = " > "

// TreeNode — узел дерева для отображения.
// Parent — невладеющая обратная ссылка, используется только для построения пути
// и никогда не сериализуется.
type TreeNode struct {
	Category
	Children []*TreeNode
	Parent   *TreeNode `json:"-"`
}

// Path возвращает названия от корня до узла включительно.
func (n *TreeNode) Path() []string {
	var reversed []string
	for cur := n; cur != nil; cur = cur.Parent {
		reversed = append(reversed, cur.DisplayName())
	}

	path := make([]string, len(reversed))
	for i, name := range reversed {
		path[len(reversed)-1-i] = name
	}
	return path
}

func (n *TreeNode) Breadcrumb() string {
	return strings.Join(n.Path(), BreadcrumbSeparator)
}
