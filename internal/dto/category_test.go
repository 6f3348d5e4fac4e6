package dto

import (
	"testing"

	"signite/internal/model"
)

func TestToCategoryNodes(t *testing.T) {
	root := &model.Category{ID: 1, Name: "讨论区", Slug: "board", Path: "board", DisplayOrder: 1}
	childB := &model.Category{ID: 3, Name: "B", Slug: "b", ParentID: uintPtr(1), Path: "board/b", Level: 1, DisplayOrder: 1}
	childA := &model.Category{ID: 2, Name: "A", Slug: "a", ParentID: uintPtr(1), Path: "board/a", Level: 1, DisplayOrder: 2}

	// childrenMap由service层按display_order排好给进来，组装只负责保序
	nodes := ToCategoryNodes(
		[]*model.Category{root},
		map[uint64][]*model.Category{1: {childB, childA}},
	)

	if len(nodes) != 1 {
		t.Fatalf("根节点数 = %d, 期望 1", len(nodes))
	}
	children := nodes[0].Children
	if len(children) != 2 {
		t.Fatalf("子节点数 = %d, 期望 2", len(children))
	}
	if children[0].Slug != "b" || children[1].Slug != "a" {
		t.Errorf("子节点顺序 = [%s, %s], 期望保持传入顺序 [b, a]", children[0].Slug, children[1].Slug)
	}
	if children[0].Children == nil {
		t.Errorf("叶子的Children不应是nil")
	}
}

func TestToCategoryNode_Metadata(t *testing.T) {
	restricted := &model.Category{ID: 1, Slug: "notice", Metadata: `{"restricted": true}`}
	node := ToCategoryNode(restricted, nil)
	if v, ok := node.Metadata["restricted"].(bool); !ok || !v {
		t.Errorf("metadata没有正确反序列化: %+v", node.Metadata)
	}

	// metadata坏了按空map处理，不让整个接口失败
	broken := &model.Category{ID: 2, Slug: "bad", Metadata: `{not json`}
	node = ToCategoryNode(broken, nil)
	if node.Metadata == nil {
		t.Errorf("坏metadata应得到空map而不是nil")
	}
	if len(node.Metadata) != 0 {
		t.Errorf("坏metadata解析结果应为空: %+v", node.Metadata)
	}
}

func TestToCategoryList(t *testing.T) {
	categories := []model.Category{
		{ID: 1, Slug: "root", Path: "root"},
		{ID: 2, Slug: "a", Path: "root/a", Level: 1},
	}
	nodes := ToCategoryList(categories)
	if len(nodes) != 2 {
		t.Fatalf("节点数 = %d, 期望 2", len(nodes))
	}
	for _, node := range nodes {
		if len(node.Children) != 0 {
			t.Errorf("扁平列表不应带children")
		}
	}
}
