package repository

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"signite/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// 扁平分类列表在Redis里的缓存key，分类读多写少，整表缓存一份
const keyCategoryList = "category:list"

type CategoryRepository interface {
	Create(category *model.Category) error
	// 全表扫描，按display_order排序。分类总量很小，整表拉回内存组树是可接受的
	FindAll() ([]model.Category, error)
	FindByID(categoryID uint64) (*model.Category, error)
	FindBySlug(slug string) (*model.Category, error)
	ExistsBySlug(slug string) (bool, error)
	// 以下三个路径查询都交给MySQL用path列回答，代码侧不做包含判断
	FindDirectChildren(parentPath string) ([]model.Category, error)
	FindAllDescendants(parentPath string) ([]model.Category, error)
	FindAllAncestors(childPath string) ([]model.Category, error)

	// 扁平列表的缓存读写
	GetListCache() ([]model.Category, error)
	SetListCache(categories []model.Category) error
	ResetListCache() error
}

type categoryRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewCategoryRepository(db *gorm.DB, rdb *redis.Client) CategoryRepository {
	return &categoryRepository{
		db:  db,
		rdb: rdb,
	}
}

func (r *categoryRepository) Create(category *model.Category) error {
	return r.db.Create(category).Error
}

// 全表取出，display_order升序、同序按id。这样根节点和兄弟节点天然有序
func (r *categoryRepository) FindAll() ([]model.Category, error) {
	var categories []model.Category
	err := r.db.Order("display_order asc, id asc").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) FindByID(categoryID uint64) (*model.Category, error) {
	var result model.Category
	err := r.db.First(&result, categoryID).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *categoryRepository) FindBySlug(slug string) (*model.Category, error) {
	var result model.Category
	err := r.db.Where("slug = ?", slug).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *categoryRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Category{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// 直接子分类：path正好比parentPath多一层，即 parent/xxx 且xxx里不再有"/"
func (r *categoryRepository) FindDirectChildren(parentPath string) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.
		Where("path LIKE ? AND path NOT LIKE ?", parentPath+"/%", parentPath+"/%/%").
		Order("display_order asc, id asc").
		Find(&categories).Error
	return categories, err
}

// 全部后代：path以 parentPath/ 开头（严格后代，不含自己），按path排序
func (r *categoryRepository) FindAllDescendants(parentPath string) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.
		Where("path LIKE ?", parentPath+"/%").
		Order("path asc").
		Find(&categories).Error
	return categories, err
}

// 全部祖先：把包含判断反过来，childPath以 候选path/ 开头的都是祖先（不含自己）
func (r *categoryRepository) FindAllAncestors(childPath string) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.
		Where("? LIKE CONCAT(path, '/%')", childPath).
		Order("path asc").
		Find(&categories).Error
	return categories, err
}

// 从Redis读扁平分类列表缓存：没缓存返回(nil, nil)，Redis本身出错才返回error
func (r *categoryRepository) GetListCache() ([]model.Category, error) {
	listJSON, err := r.rdb.Get(context.Background(), keyCategoryList).Result()
	if err == redis.Nil {
		return nil, nil // 缓存不存在，但Redis正常工作
	} else if err != nil {
		return nil, err
	}
	var categories []model.Category
	if err := json.Unmarshal([]byte(listJSON), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// 把扁平分类列表写进Redis：序列化成JSON，过期时间加随机抖动防止缓存雪崩
func (r *categoryRepository) SetListCache(categories []model.Category) error {
	listJSON, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	expiration := time.Minute*10 + time.Duration(rand.Intn(60))*time.Second
	return r.rdb.Set(context.Background(), keyCategoryList, listJSON, expiration).Err()
}

// 分类有增改时直接删掉缓存，下次读自然回源重建
func (r *categoryRepository) ResetListCache() error {
	return r.rdb.Del(context.Background(), keyCategoryList).Err()
}
