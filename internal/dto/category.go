package dto

import (
	"encoding/json"

	"signite/internal/model"
)

// CategoryNode 是分类树的响应节点
type CategoryNode struct {
	ID           uint64                 `json:"id"`
	Name         string                 `json:"name"`
	Slug         string                 `json:"slug"`
	ParentID     *uint64                `json:"parent_id,omitempty"`
	Path         string                 `json:"path"`
	Level        int                    `json:"level"`
	DisplayOrder int                    `json:"display_order"`
	Metadata     map[string]interface{} `json:"metadata"`
	Children     []CategoryNode         `json:"children"`
}

// 单个分类转响应节点，metadata从JSON文本反序列化成map，坏数据按空map处理
func ToCategoryNode(category *model.Category, children []CategoryNode) CategoryNode {
	metadata := map[string]interface{}{}
	if category.Metadata != "" {
		// 解析失败就保持空map，展示数据坏了不该让整个接口失败
		_ = json.Unmarshal([]byte(category.Metadata), &metadata)
	}
	if children == nil {
		children = []CategoryNode{}
	}
	return CategoryNode{
		ID:           category.ID,
		Name:         category.Name,
		Slug:         category.Slug,
		ParentID:     category.ParentID,
		Path:         category.Path,
		Level:        category.Level,
		DisplayOrder: category.DisplayOrder,
		Metadata:     metadata,
		Children:     children,
	}
}

// 把“根列表+父子分组”递归组装成嵌套的分类森林。
// childrenMap里每组子分类已按display_order排好，这里保持原序
func ToCategoryNodes(roots []*model.Category, childrenMap map[uint64][]*model.Category) []CategoryNode {
	nodes := make([]CategoryNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, buildCategoryNode(root, childrenMap))
	}
	return nodes
}

func buildCategoryNode(category *model.Category, childrenMap map[uint64][]*model.Category) CategoryNode {
	children := make([]CategoryNode, 0, len(childrenMap[category.ID]))
	for _, child := range childrenMap[category.ID] {
		children = append(children, buildCategoryNode(child, childrenMap))
	}
	return ToCategoryNode(category, children)
}

// 路径查询（子级/后代/祖先）返回的是扁平列表，不带children
func ToCategoryList(categories []model.Category) []CategoryNode {
	nodes := make([]CategoryNode, 0, len(categories))
	for i := range categories {
		nodes = append(nodes, ToCategoryNode(&categories[i], nil))
	}
	return nodes
}
