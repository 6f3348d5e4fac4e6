package model

// 标签与帖子是多对多，连接表post_tags由gorm的many2many自动维护
type Tag struct {
	BaseModel
	Name string `gorm:"unique;not null"`
	Slug string `gorm:"unique;not null"`
}

func (Tag) TableName() string {
	return "tags"
}
