package model

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	BaseModel        // 包括 ID, CreatedAt, UpdatedAt, DeletedAt
	Username  string `gorm:"unique;not null"`
	Email     string `gorm:"unique;not null"`
	Password  string `gorm:"not null"`
	// 角色先只分user和admin，admin才能管理分类、在受限分类下发帖
	Role string `gorm:"type:varchar(16);default:user;not null"`
}
