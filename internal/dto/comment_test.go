package dto

import (
	"testing"

	"signite/internal/model"
)

func uintPtr(v uint64) *uint64 { return &v }

// 嵌套组装：子回复挂在对的父节点下，Children永远不是nil
func TestToCommentNodes(t *testing.T) {
	root1 := &model.Comment{ID: 1, PostID: 1, AuthorID: 10, Content: "first", Path: "1"}
	root2 := &model.Comment{ID: 3, PostID: 1, AuthorID: 20, Content: "second", Path: "3"}
	reply := &model.Comment{ID: 2, PostID: 1, AuthorID: 30, Content: "reply", ParentID: uintPtr(1), Depth: 1, Path: "1/2"}
	deep := &model.Comment{ID: 4, PostID: 1, AuthorID: 40, Content: "deep", ParentID: uintPtr(2), Depth: 2, Path: "1/2/4"}

	nodes := ToCommentNodes(
		[]*model.Comment{root1, root2},
		map[uint64][]*model.Comment{1: {reply}, 2: {deep}},
	)

	if len(nodes) != 2 {
		t.Fatalf("根节点数 = %d, 期望 2", len(nodes))
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].ID != 2 {
		t.Fatalf("root1的子节点不对: %+v", nodes[0].Children)
	}
	if len(nodes[0].Children[0].Children) != 1 || nodes[0].Children[0].Children[0].ID != 4 {
		t.Errorf("第三层节点没挂对")
	}
	// 叶子的Children是空数组不是nil，JSON序列化出来要是[]
	if nodes[1].Children == nil {
		t.Errorf("叶子节点的Children不应是nil")
	}
}

// 软删的评论节点保留在树里，但内容换占位文案、作者清零
func TestToCommentNode_Deleted(t *testing.T) {
	deleted := &model.Comment{ID: 1, PostID: 1, AuthorID: 10, Content: "secret", IsDeleted: true, Path: "1"}

	node := ToCommentNode(deleted, nil)
	if node.Content == "secret" {
		t.Errorf("软删评论的原始内容泄露了")
	}
	if node.Content != "该评论已删除" {
		t.Errorf("Content = %q, 期望占位文案", node.Content)
	}
	if node.AuthorID != 0 {
		t.Errorf("软删评论的AuthorID = %d, 期望清零", node.AuthorID)
	}
	if !node.IsDeleted {
		t.Errorf("IsDeleted标记应保留")
	}
}
