// cmd/seeder/main.go

package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"

	"signite/internal/model"

	"github.com/go-faker/faker/v4"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	fmt.Println("🚀 开始填充测试数据...")

	godotenv.Load()

	// --- 1. 连接数据库 ---
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:signite@tcp(127.0.0.1:3306)/signite?charset=utf8mb4&parseTime=True&loc=Local"
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ 无法连接到数据库: %v", err)
	}
	fmt.Println("✅ 数据库连接成功!")

	// --- 2. 清理旧数据 ---
	fmt.Println("🧹 正在清理旧数据...")
	// 注意：这将删除所有数据！
	db.Migrator().DropTable("post_tags")
	db.Migrator().DropTable(&model.Comment{}, &model.Post{}, &model.Tag{}, &model.Category{}, &model.User{})
	fmt.Println("✅ 旧表删除成功!")

	// 重新迁移，创建新表
	db.AutoMigrate(&model.User{}, &model.Category{}, &model.Tag{}, &model.Post{}, &model.Comment{})
	fmt.Println("✅ 数据库迁移成功!")

	// --- 3. 创建用户 ---
	fmt.Println("👥 正在创建用户...")
	userCount := 50
	// 所有测试用户都用默认密码 "password"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ 密码加密失败: %v", err)
	}
	// 第一个用户是管理员，方便测试建分类等admin接口
	admin := model.User{
		Username: "admin",
		Email:    "admin@signite.dev",
		Password: string(hashedPassword),
		Role:     model.RoleAdmin,
	}
	db.Create(&admin)
	for i := 0; i < userCount-1; i++ {
		user := model.User{
			Username: faker.Username(),
			Email:    faker.Email(),
			Password: string(hashedPassword),
			Role:     model.RoleUser,
		}
		db.Create(&user)
	}
	fmt.Printf("✅ 成功创建 %d 个用户!\n", userCount)

	// --- 4. 创建分类树 ---
	fmt.Println("🗂  正在创建分类...")
	// 两个根分类 + 各自两个子分类，公告分类是受限的，只有admin能发帖
	notice := model.Category{Name: "公告", Slug: "notice", Path: "notice", Level: 0, DisplayOrder: 1, Metadata: `{"restricted": true}`}
	db.Create(&notice)
	board := model.Category{Name: "讨论区", Slug: "board", Path: "board", Level: 0, DisplayOrder: 2}
	db.Create(&board)

	childNames := map[string][2]string{
		"notice-release": {"版本发布", "notice"},
		"notice-events":  {"活动", "notice"},
		"board-dev":      {"开发", "board"},
		"board-chat":     {"闲聊", "board"},
	}
	parents := map[string]*model.Category{"notice": &notice, "board": &board}
	order := 1
	for slug, info := range childNames {
		parent := parents[info[1]]
		child := model.Category{
			Name:         info[0],
			Slug:         slug,
			ParentID:     &parent.ID,
			Path:         parent.Path + "/" + slug,
			Level:        parent.Level + 1,
			DisplayOrder: order,
		}
		db.Create(&child)
		order++
	}
	fmt.Println("✅ 成功创建分类树!")

	// --- 5. 创建帖子 ---
	fmt.Println("📝 正在创建帖子...")
	postCount := 200
	var categoryIDs []uint64
	db.Model(&model.Category{}).Pluck("id", &categoryIDs)
	for i := 0; i < postCount; i++ {
		post := model.Post{
			// 从已创建的用户中随机选一个作者，rand.Intn(userCount)+1 得到 [1, userCount]
			AuthorID:   uint64(rand.Intn(userCount) + 1),
			CategoryID: categoryIDs[rand.Intn(len(categoryIDs))],
			Title:      faker.Sentence(),
			Content:    faker.Paragraph(),
		}
		db.Create(&post)
	}
	fmt.Printf("✅ 成功创建 %d 个帖子!\n", postCount)

	// --- 6. 创建评论（带层级） ---
	fmt.Println("💬 正在创建评论...")
	commentCount := 500
	for i := 0; i < commentCount; i++ {
		postID := uint64(rand.Intn(postCount) + 1)
		comment := model.Comment{
			PostID:   postID,
			AuthorID: uint64(rand.Intn(userCount) + 1),
			Content:  faker.Sentence(),
		}
		// 三分之一概率挂成回复：在同帖里随机找一个层级未到上限的评论当父评论
		if rand.Intn(3) == 0 {
			var parent model.Comment
			err := db.Where("post_id = ? AND depth < ?", postID, model.MaxCommentDepth).
				Order("RAND()").First(&parent).Error
			if err == nil {
				comment.ParentID = &parent.ID
				comment.Depth = parent.Depth + 1
			}
		}
		// 和线上创建逻辑一样的两步写：先插入拿ID，再补物化路径
		if err := db.Create(&comment).Error; err != nil {
			continue
		}
		path := strconv.FormatUint(comment.ID, 10)
		if comment.ParentID != nil {
			var parent model.Comment
			if err := db.First(&parent, *comment.ParentID).Error; err == nil {
				path = parent.Path + "/" + path
			}
		}
		db.Model(&model.Comment{}).Where("id = ?", comment.ID).UpdateColumn("path", path)
	}
	// 把冗余的评论计数一次性对齐，平时靠consumer增量维护
	db.Exec(`UPDATE posts p SET comment_count = (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.is_deleted = false)`)
	fmt.Printf("✅ 成功创建 %d 条评论!\n", commentCount)

	fmt.Println("🎉🎉🎉 所有测试数据填充完毕! 🎉🎉🎉")
}
