package model

import "time"

// 分类结构，整站一棵（或几棵）树。parent_id是邻接表，path是物化路径，两种表示并存：
// parent_id用来在内存里组树，path用来让数据库直接回答祖先/后代查询
type Category struct {
	ID   uint64 `gorm:"primarykey"`
	Name string `gorm:"not null"`
	Slug string `gorm:"unique;not null"` // 全站唯一，URL里用
	// nil表示根分类
	ParentID *uint64 `gorm:"index"`
	// 物化路径，由slug拼接，例如"notice"、"notice/sub1"
	Path string `gorm:"type:varchar(255);not null;index"`
	// 树深度，根为0
	Level int `gorm:"not null;default:0"`
	// 同级排序，升序
	DisplayOrder int `gorm:"not null;default:0"`
	// 开放的展示用键值对，存JSON文本，DTO层再反序列化成map
	Metadata  string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Category) TableName() string {
	return "categories"
}
