package dto

import (
	"time"

	"signite/internal/model"
)

// 被软删的评论在响应里统一显示这句占位文案，作者也一并隐去
const deletedContentPlaceholder = "该评论已删除"

// CommentNode 是评论树的响应节点，Children里递归挂着子回复
type CommentNode struct {
	ID        uint64        `json:"id"`
	Content   string        `json:"content"`
	PostID    uint64        `json:"post_id"`
	AuthorID  uint64        `json:"author_id"`
	ParentID  *uint64       `json:"parent_id,omitempty"`
	Depth     int           `json:"depth"`
	IsDeleted bool          `json:"is_deleted"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Children  []CommentNode `json:"children"`
}

// 单条评论转响应节点。软删的评论留在树里撑结构，但内容换占位文案、作者清零
func ToCommentNode(comment *model.Comment, children []CommentNode) CommentNode {
	node := CommentNode{
		ID:        comment.ID,
		Content:   comment.Content,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		ParentID:  comment.ParentID,
		Depth:     comment.Depth,
		IsDeleted: comment.IsDeleted,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Children:  children,
	}
	if node.Children == nil {
		node.Children = []CommentNode{}
	}
	if comment.IsDeleted {
		node.Content = deletedContentPlaceholder
		node.AuthorID = 0
	}
	return node
}

// 把service层给的“根列表+父子分组”递归组装成嵌套响应。
// childrenMap里的每组子评论已经是path序，这里不再重排
func ToCommentNodes(roots []*model.Comment, childrenMap map[uint64][]*model.Comment) []CommentNode {
	nodes := make([]CommentNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, buildCommentNode(root, childrenMap))
	}
	return nodes
}

func buildCommentNode(comment *model.Comment, childrenMap map[uint64][]*model.Comment) CommentNode {
	children := make([]CommentNode, 0, len(childrenMap[comment.ID]))
	for _, child := range childrenMap[comment.ID] {
		children = append(children, buildCommentNode(child, childrenMap))
	}
	return ToCommentNode(comment, children)
}
