package model

// 帖子结构，博客/板块的核心实体：作者、标题、正文、所属分类，以及几个冗余计数
type Post struct {
	BaseModel
	AuthorID   uint64 `gorm:"not null;index"` // 作者ID，用于关联用户
	CategoryID uint64 `gorm:"not null;index"` // 所属分类ID
	Title      string `gorm:"not null"`
	// TEXT是MySQL中的一种文本类型，专门用于存储非常长的字符串，最大长度可达65,535个字符
	Content string `gorm:"type:text;not null"`
	// 评论数是冗余列，由consumer消费评论事件异步维护，避免每次读帖都COUNT一遍
	CommentCount uint64 `gorm:"default:0"`
	ViewCount    uint64 `gorm:"default:0"`

	// 外键AuthorID和User表的ID
	Author User `gorm:"foreignKey:AuthorID;references:ID"`
	// 多对多，gorm会自动维护post_tags连接表
	Tags []Tag `gorm:"many2many:post_tags"`
}

func (Post) TableName() string {
	return "posts"
}
