package model

import "time"

// 评论允许的最大层级，0是一级评论，2是对二级评论的回复；对depth为2的评论再回复会被拒绝
const MaxCommentDepth = 2

// 评论结构。软删除用业务字段IsDeleted而不是gorm的DeletedAt：
// 被软删的评论还要留在评论树里撑住它下面的回复，所以不能让gorm把它从查询里过滤掉
type Comment struct {
	ID        uint64 `gorm:"primarykey"`
	PostID    uint64 `gorm:"not null;index"` // index索引，加速按帖子查评论
	AuthorID  uint64 `gorm:"not null;index"`
	Content   string `gorm:"type:text;not null"`
	// 指针*uint64的零值是nil，这样就能区分一级评论和回复
	ParentID *uint64 `gorm:"index"`
	// 层级，0为一级评论，回复是父评论depth+1
	Depth int `gorm:"not null;default:0"`
	// 物化路径，例如"1/3/5"，一级评论就是自己的ID。
	// 路径里包含自己的ID，而ID是插入后数据库分配的，所以创建评论必须先插入再补path
	Path      string `gorm:"type:varchar(255);not null;default:'';index"`
	IsDeleted bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Comment) TableName() string {
	return "comments"
}
