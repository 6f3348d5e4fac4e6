package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"signite/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(post *model.Post) error
	Save(post *model.Post) error
	FindByID(postID uint64) (*model.Post, error)
	// 只查存在性，评论创建路径用，不用把整行拉回来
	ExistsByID(postID uint64) (bool, error)
	// 分页列表，categoryID/authorID为0表示不过滤
	FindPage(offset, limit int, categoryID, authorID uint64) ([]model.Post, error)
	CountPage(categoryID, authorID uint64) (int64, error)
	// 标题/正文LIKE搜索
	Search(query string, offset, limit int) ([]model.Post, error)
	FindByTagSlug(tagSlug string, offset, limit int) ([]model.Post, error)
	Delete(postID uint64) error

	// 冗余计数列的原子更新，consumer消费评论事件时调用
	IncrementCommentCount(postID uint64) error
	DecrementCommentCount(postID uint64) error
	IncrementViewCount(postID uint64) error

	GetPostCache(postID uint64) (*model.Post, error)
	SetPostCache(post *model.Post) error
	DeletePostCache(postID uint64) error

	WithTx(tx *gorm.DB) PostRepository
}

type postRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewPostRepository(db *gorm.DB, rdb *redis.Client) PostRepository {
	return &postRepository{
		db:  db,
		rdb: rdb,
	}
}

// WithTx 返回一个新的、绑定了事务的 postRepository 实例
func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{
		db: tx,
	}
}

func (r *postRepository) Create(post *model.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) Save(post *model.Post) error {
	return r.db.Save(post).Error
}

// 利用postID找帖子，Preload出作者和标签
func (r *postRepository) FindByID(postID uint64) (*model.Post, error) {
	var result model.Post
	err := r.db.Preload("Author").Preload("Tags").First(&result, postID).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SELECT count(*) FROM posts WHERE id = ?，评论创建只关心帖子在不在
func (r *postRepository) ExistsByID(postID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Post{}).Where("id = ?", postID).Count(&count).Error
	return count > 0, err
}

// 分页查列表，时间倒序，按需叠加分类/作者过滤
func (r *postRepository) FindPage(offset, limit int, categoryID, authorID uint64) ([]model.Post, error) {
	var posts []model.Post
	q := r.db.Preload("Author").Preload("Tags").Order("created_at desc")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if authorID != 0 {
		q = q.Where("author_id = ?", authorID)
	}
	err := q.Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountPage(categoryID, authorID uint64) (int64, error) {
	var count int64
	q := r.db.Model(&model.Post{})
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if authorID != 0 {
		q = q.Where("author_id = ?", authorID)
	}
	err := q.Count(&count).Error
	return count, err
}

// 标题或正文LIKE匹配，小站规模够用了，不上搜索引擎
func (r *postRepository) Search(query string, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	pattern := "%" + query + "%"
	err := r.db.Preload("Author").Preload("Tags").
		Where("title LIKE ? OR content LIKE ?", pattern, pattern).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// 通过连接表post_tags反查某个标签下的帖子
func (r *postRepository) FindByTagSlug(tagSlug string, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.db.Preload("Author").Preload("Tags").
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("tags.slug = ?", tagSlug).
		Order("posts.created_at desc").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Delete(postID uint64) error {
	return r.db.Delete(&model.Post{}, postID).Error
}

// UPDATE `posts` SET `comment_count` = `comment_count` + 1 WHERE id = ?，gorm表达式保证原子
func (r *postRepository) IncrementCommentCount(postID uint64) error {
	return r.db.Model(&model.Post{}).Where("id = ?", postID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
}

// 减到0为止，WHERE里带上comment_count > 0防止变成天文数字
func (r *postRepository) DecrementCommentCount(postID uint64) error {
	return r.db.Model(&model.Post{}).Where("id = ? AND comment_count > 0", postID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
}

func (r *postRepository) IncrementViewCount(postID uint64) error {
	return r.db.Model(&model.Post{}).Where("id = ?", postID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// 返回存储单个帖子信息的字符串Key
func (r *postRepository) keyPostInfo(postID uint64) string {
	return fmt.Sprintf("post:info:%d", postID)
}

// 从Redis缓存中获取单个帖子：1、拼key 2、GET 3、JSON反序列化
func (r *postRepository) GetPostCache(postID uint64) (*model.Post, error) {
	key := r.keyPostInfo(postID)
	postJSON, err := r.rdb.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return nil, nil // 缓存不存在，但Redis正常工作
	} else if err != nil {
		return nil, err // Redis本身出错了
	}
	var post model.Post
	if err := json.Unmarshal([]byte(postJSON), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// 把单个帖子写进Redis缓存，过期时间加随机抖动防止缓存雪崩
func (r *postRepository) SetPostCache(post *model.Post) error {
	key := r.keyPostInfo(post.ID)
	postJSON, err := json.Marshal(post)
	if err != nil {
		return err
	}
	expiration := time.Minute*5 + time.Duration(rand.Intn(60))*time.Second
	return r.rdb.Set(context.Background(), key, postJSON, expiration).Err()
}

// 帖子被改或被删时让缓存失效
func (r *postRepository) DeletePostCache(postID uint64) error {
	return r.rdb.Del(context.Background(), r.keyPostInfo(postID)).Err()
}
