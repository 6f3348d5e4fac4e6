package repository

import (
	"errors"

	"signite/internal/model"

	"gorm.io/gorm"
)

type TagRepository interface {
	// 按名字找标签，没有就建一个，发帖时批量调用
	FindOrCreate(name, slug string) (*model.Tag, error)
	FindAll() ([]model.Tag, error)
	FindBySlug(slug string) (*model.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// 先查再建。并发下靠tags.name的唯一索引兜底，撞了唯一键就再查一次
func (r *tagRepository) FindOrCreate(name, slug string) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	tag = model.Tag{Name: name, Slug: slug}
	if createErr := r.db.Create(&tag).Error; createErr != nil {
		// 大概率是别的请求先建好了，按名字重查一遍
		if findErr := r.db.Where("name = ?", name).First(&tag).Error; findErr != nil {
			return nil, createErr
		}
	}
	return &tag, nil
}

func (r *tagRepository) FindAll() ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.Order("name asc").Find(&tags).Error
	return tags, err
}

func (r *tagRepository) FindBySlug(slug string) (*model.Tag, error) {
	var result model.Tag
	err := r.db.Where("slug = ?", slug).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}
