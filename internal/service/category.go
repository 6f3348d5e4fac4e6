package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"signite/internal/model"
	"signite/internal/repository"
	"signite/pkg/logger"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// 受限分类在metadata里的标记，带这个标记的分类只有admin能发帖
const metadataKeyRestricted = "restricted"

// 分类服务。树不落库，每次从扁平列表现组，列表本身走Redis缓存
type CategoryService interface {
	// 全部分类组成森林：返回有序的根列表 + parentID到子分类的分组（子分类按display_order升序）
	GetAllAsTree() ([]*model.Category, map[uint64][]*model.Category, error)
	GetBySlug(slug string) (*model.Category, error)
	GetByID(categoryID uint64) (*model.Category, error)
	// 三个路径查询直接委托给数据库的path列，代码侧不重算包含关系
	GetDirectChildren(parentPath string) ([]model.Category, error)
	GetAllDescendants(parentPath string) ([]model.Category, error)
	GetAllAncestors(childPath string) ([]model.Category, error)
	// 管理员建分类：level和path由父分类推出来
	CreateCategory(name, slug string, parentID *uint64, displayOrder int, metadata map[string]interface{}) (*model.Category, error)
	// 发帖权限检查：受限分类只允许admin。分类服务出问题时放行（临时策略），只记日志
	CheckPermission(role string, categoryID uint64, permission string) bool
	// 手动重置分类列表缓存
	ResetCache() error
}

type categoryService struct {
	sf singleflight.Group

	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
	}
}

// 读扁平分类列表：1、先看Redis缓存 2、未命中走SingleFlight回源数据库 3、回填缓存
func (s *categoryService) getFlatList() ([]model.Category, error) {
	cached, err := s.categoryRepo.GetListCache()
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil {
		// Redis出错不挡读路径，记一笔直接回源
		logger.Log.WithError(err).Warn("分类列表缓存读取失败，回源数据库")
	}
	// 缓存未命中，SingleFlight把同一时刻的并发回源合并成一次查询
	result, err, _ := s.sf.Do("category_list", func() (interface{}, error) {
		categories, dbErr := s.categoryRepo.FindAll()
		if dbErr != nil {
			return nil, dbErr
		}
		// 查询成功后写回缓存
		_ = s.categoryRepo.SetListCache(categories)
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.Category), nil
}

// 组装分类森林：1、全量拉扁平列表（已按display_order, id排序）
// 2、一趟循环按ParentID分组，保持原序 3、ParentID为nil的是根。整个组装O(n)。
// 扫描本身有序，所以根和每组子分类都自然是display_order升序
func (s *categoryService) GetAllAsTree() ([]*model.Category, map[uint64][]*model.Category, error) {
	categories, err := s.getFlatList()
	if err != nil {
		return nil, nil, err
	}

	roots := make([]*model.Category, 0)
	childrenMap := make(map[uint64][]*model.Category)
	for i := range categories {
		category := &categories[i]
		if category.ParentID == nil {
			roots = append(roots, category)
		} else {
			childrenMap[*category.ParentID] = append(childrenMap[*category.ParentID], category)
		}
	}
	return roots, childrenMap, nil
}

func (s *categoryService) GetBySlug(slug string) (*model.Category, error) {
	category, err := s.categoryRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 分类不存在", ErrNotFound)
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetByID(categoryID uint64) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 分类不存在", ErrNotFound)
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetDirectChildren(parentPath string) ([]model.Category, error) {
	return s.categoryRepo.FindDirectChildren(parentPath)
}

func (s *categoryService) GetAllDescendants(parentPath string) ([]model.Category, error) {
	return s.categoryRepo.FindAllDescendants(parentPath)
}

func (s *categoryService) GetAllAncestors(childPath string) ([]model.Category, error) {
	return s.categoryRepo.FindAllAncestors(childPath)
}

// 建分类：1、slug查重 2、有父分类则level=父level+1、path=父path/slug，
// 根分类level=0、path=slug 3、入库后重置列表缓存
func (s *categoryService) CreateCategory(name, slug string, parentID *uint64, displayOrder int, metadata map[string]interface{}) (*model.Category, error) {
	exists, err := s.categoryRepo.ExistsBySlug(slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: slug已被占用", ErrInvalidState)
	}

	newCategory := &model.Category{
		Name:         name,
		Slug:         slug,
		ParentID:     parentID,
		Path:         slug,
		Level:        0,
		DisplayOrder: displayOrder,
	}
	if parentID != nil {
		parent, err := s.categoryRepo.FindByID(*parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: 父分类不存在", ErrNotFound)
			}
			return nil, err
		}
		newCategory.Level = parent.Level + 1
		newCategory.Path = parent.Path + "/" + slug
	}
	if metadata != nil {
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		newCategory.Metadata = string(metadataJSON)
	}

	if err := s.categoryRepo.Create(newCategory); err != nil {
		return nil, err
	}
	// 分类变了，旧缓存直接作废，下次读重建
	if err := s.categoryRepo.ResetListCache(); err != nil {
		logger.Log.WithError(err).Warn("分类列表缓存重置失败")
	}
	return newCategory, nil
}

// 发帖权限：metadata里没有restricted标记的分类人人可发；有标记的只放行admin。
// 分类查不到或metadata坏了时放行并记日志（临时策略，和上游服务的兜底行为保持一致）
func (s *categoryService) CheckPermission(role string, categoryID uint64, permission string) bool {
	category, err := s.categoryRepo.FindByID(categoryID)
	if err != nil {
		logger.Log.WithError(err).
			WithField("category_id", categoryID).
			WithField("permission", permission).
			Warn("分类权限检查失败，临时放行")
		return true
	}
	if category.Metadata == "" {
		return true
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal([]byte(category.Metadata), &metadata); err != nil {
		logger.Log.WithError(err).WithField("category_id", categoryID).Warn("分类metadata解析失败，临时放行")
		return true
	}
	restricted, ok := metadata[metadataKeyRestricted].(bool)
	if !ok || !restricted {
		return true
	}
	return role == model.RoleAdmin
}

func (s *categoryService) ResetCache() error {
	return s.categoryRepo.ResetListCache()
}
