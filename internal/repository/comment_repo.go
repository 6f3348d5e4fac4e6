package repository

import (
	"signite/internal/model"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	FindByID(commentID uint64) (*model.Comment, error)
	// 只更新path列，创建评论的第二步（插入拿到ID之后才能算出path）
	UpdatePath(commentID uint64, path string) error
	Save(comment *model.Comment) error
	// 按path字典序取一个帖子下的全部评论，path序约等于深度优先+兄弟有序
	FindByPostIDOrderByPath(postID uint64) ([]model.Comment, error)
	// 某条评论的直接回复
	FindByParentID(parentID uint64) ([]model.Comment, error)
	// 硬删除，只用于没有任何回复的评论
	Delete(commentID uint64) error
	// 未软删的评论数
	CountByPostID(postID uint64) (int64, error)

	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// WithTx 返回一个新的、绑定了事务的 commentRepository 实例
func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{
		db: tx,
	}
}

// Create 对事务和非事务场景通用，插入成功后gorm会把数据库分配的ID写回comment.ID
func (r *commentRepository) Create(comment *model.Comment) error {
	return r.db.Create(comment).Error
}

func (r *commentRepository) FindByID(commentID uint64) (*model.Comment, error) {
	var result model.Comment
	// 筛选条件直接放在db.First参数里
	err := r.db.First(&result, commentID).Error
	if err != nil {
		return nil, err // 有错（包括没找到）直接返回
	}
	return &result, nil
}

// 创建评论的第二步：把算好的物化路径补进去。UPDATE comments SET path = ? WHERE id = ?
func (r *commentRepository) UpdatePath(commentID uint64, path string) error {
	return r.db.Model(&model.Comment{}).Where("id = ?", commentID).UpdateColumn("path", path).Error
}

func (r *commentRepository) Save(comment *model.Comment) error {
	return r.db.Save(comment).Error
}

// 取一个帖子下的全部评论（含软删的，软删评论要留在树里撑住子回复），按path排序
func (r *commentRepository) FindByPostIDOrderByPath(postID uint64) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.
		Where("post_id = ?", postID).
		Order("path asc").
		Find(&comments).Error
	return comments, err
}

// 某条评论的直接回复，按创建时间正序
func (r *commentRepository) FindByParentID(parentID uint64) ([]model.Comment, error) {
	var replies []model.Comment
	err := r.db.
		Where("parent_id = ?", parentID).
		Order("created_at asc").
		Find(&replies).Error
	return replies, err
}

// 硬删除整行。Comment没有gorm的DeletedAt，这里的Delete就是真删
func (r *commentRepository) Delete(commentID uint64) error {
	return r.db.Delete(&model.Comment{}, commentID).Error
}

// 统计一个帖子下未软删的评论数
func (r *commentRepository) CountByPostID(postID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).
		Where("post_id = ? AND is_deleted = ?", postID, false).
		Count(&count).Error
	return count, err
}
