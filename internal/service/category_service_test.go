package service

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"signite/internal/model"

	"gorm.io/gorm"
)

// 内存版CategoryRepository。cacheList模拟Redis里的那份整表缓存，
// 几个计数器用来验证缓存命中/回源/重置的路径走没走对
type fakeCategoryRepo struct {
	nextID     uint64
	categories []model.Category

	cacheList   []model.Category
	findAllHits int
	cacheResets int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{nextID: 1}
}

func (r *fakeCategoryRepo) Create(category *model.Category) error {
	category.ID = r.nextID
	r.nextID++
	r.categories = append(r.categories, *category)
	return nil
}

// 和真仓库一样按display_order, id排序返回
func (r *fakeCategoryRepo) FindAll() ([]model.Category, error) {
	r.findAllHits++
	result := make([]model.Category, len(r.categories))
	copy(result, r.categories)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *fakeCategoryRepo) FindByID(categoryID uint64) (*model.Category, error) {
	for i := range r.categories {
		if r.categories[i].ID == categoryID {
			result := r.categories[i]
			return &result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) FindBySlug(slug string) (*model.Category, error) {
	for i := range r.categories {
		if r.categories[i].Slug == slug {
			result := r.categories[i]
			return &result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) ExistsBySlug(slug string) (bool, error) {
	_, err := r.FindBySlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeCategoryRepo) FindDirectChildren(parentPath string) ([]model.Category, error) {
	var result []model.Category
	for _, category := range r.categories {
		rest, ok := strings.CutPrefix(category.Path, parentPath+"/")
		if ok && !strings.Contains(rest, "/") {
			result = append(result, category)
		}
	}
	return result, nil
}

func (r *fakeCategoryRepo) FindAllDescendants(parentPath string) ([]model.Category, error) {
	var result []model.Category
	for _, category := range r.categories {
		if strings.HasPrefix(category.Path, parentPath+"/") {
			result = append(result, category)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (r *fakeCategoryRepo) FindAllAncestors(childPath string) ([]model.Category, error) {
	var result []model.Category
	for _, category := range r.categories {
		if strings.HasPrefix(childPath, category.Path+"/") {
			result = append(result, category)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (r *fakeCategoryRepo) GetListCache() ([]model.Category, error) { return r.cacheList, nil }

func (r *fakeCategoryRepo) SetListCache(categories []model.Category) error {
	r.cacheList = categories
	return nil
}

func (r *fakeCategoryRepo) ResetListCache() error {
	r.cacheList = nil
	r.cacheResets++
	return nil
}

// 显示顺序压过创建顺序：先建A(order=2)再建B(order=1)，树里B排在A前面
func TestGetAllAsTree_DisplayOrder(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)

	root, err := svc.CreateCategory("根", "root", nil, 1, nil)
	if err != nil {
		t.Fatalf("建根分类失败: %v", err)
	}
	if _, err := svc.CreateCategory("A", "a", &root.ID, 2, nil); err != nil {
		t.Fatalf("建A失败: %v", err)
	}
	if _, err := svc.CreateCategory("B", "b", &root.ID, 1, nil); err != nil {
		t.Fatalf("建B失败: %v", err)
	}

	roots, childrenMap, err := svc.GetAllAsTree()
	if err != nil {
		t.Fatalf("组树失败: %v", err)
	}
	if len(roots) != 1 || roots[0].Slug != "root" {
		t.Fatalf("根列表不对: %+v", roots)
	}
	children := childrenMap[root.ID]
	if len(children) != 2 {
		t.Fatalf("子分类数 = %d, 期望 2", len(children))
	}
	if children[0].Slug != "b" || children[1].Slug != "a" {
		t.Errorf("子分类顺序 = [%s, %s], 期望 [b, a]（display_order优先）", children[0].Slug, children[1].Slug)
	}
}

// path和level由父分类推出来
func TestCreateCategory(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)

	root, _ := svc.CreateCategory("讨论区", "board", nil, 1, nil)
	if root.Level != 0 || root.Path != "board" {
		t.Errorf("根分类 Level=%d Path=%q, 期望 0 和 %q", root.Level, root.Path, "board")
	}

	child, err := svc.CreateCategory("综合", "general", &root.ID, 1, nil)
	if err != nil {
		t.Fatalf("建子分类失败: %v", err)
	}
	if child.Level != 1 || child.Path != "board/general" {
		t.Errorf("子分类 Level=%d Path=%q, 期望 1 和 %q", child.Level, child.Path, "board/general")
	}

	// slug查重
	if _, err := svc.CreateCategory("重名", "board", nil, 9, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("slug重复应返回ErrInvalidState, 实际: %v", err)
	}

	// 父分类不存在
	missing := uint64(777)
	if _, err := svc.CreateCategory("孤儿", "orphan", &missing, 1, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("父分类不存在应返回ErrNotFound, 实际: %v", err)
	}

	// 每次建分类都应重置列表缓存
	if repo.cacheResets < 2 {
		t.Errorf("缓存重置次数 = %d, 期望每次创建成功都重置", repo.cacheResets)
	}
}

// 缓存路径：第一次读回源并回填，第二次读命中缓存不再查库
func TestGetAllAsTree_CacheAside(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)
	svc.CreateCategory("根", "root", nil, 1, nil)

	if _, _, err := svc.GetAllAsTree(); err != nil {
		t.Fatalf("第一次组树失败: %v", err)
	}
	if repo.findAllHits != 1 {
		t.Fatalf("回源次数 = %d, 期望 1", repo.findAllHits)
	}
	if repo.cacheList == nil {
		t.Fatalf("回源后应回填缓存")
	}
	if _, _, err := svc.GetAllAsTree(); err != nil {
		t.Fatalf("第二次组树失败: %v", err)
	}
	if repo.findAllHits != 1 {
		t.Errorf("命中缓存后回源次数 = %d, 期望仍是 1", repo.findAllHits)
	}
}

func TestCategoryPathQueries(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)

	root, _ := svc.CreateCategory("根", "root", nil, 1, nil)
	childA, _ := svc.CreateCategory("A", "a", &root.ID, 1, nil)
	svc.CreateCategory("B", "b", &root.ID, 2, nil)
	leaf, _ := svc.CreateCategory("叶", "leaf", &childA.ID, 1, nil)

	// 直接子分类只有一层
	children, err := svc.GetDirectChildren("root")
	if err != nil {
		t.Fatalf("查子分类失败: %v", err)
	}
	if len(children) != 2 {
		t.Errorf("直接子分类数 = %d, 期望 2（不含孙子）", len(children))
	}

	// 后代包含所有层，不包含自己
	descendants, err := svc.GetAllDescendants("root")
	if err != nil {
		t.Fatalf("查后代失败: %v", err)
	}
	if len(descendants) != 3 {
		t.Errorf("后代数 = %d, 期望 3", len(descendants))
	}
	for _, d := range descendants {
		if d.Slug == "root" {
			t.Errorf("后代结果不应包含自己")
		}
	}

	// 祖先按path序：root在root/a前面
	ancestors, err := svc.GetAllAncestors(leaf.Path)
	if err != nil {
		t.Fatalf("查祖先失败: %v", err)
	}
	if len(ancestors) != 2 {
		t.Fatalf("祖先数 = %d, 期望 2", len(ancestors))
	}
	if ancestors[0].Slug != "root" || ancestors[1].Slug != "a" {
		t.Errorf("祖先顺序 = [%s, %s], 期望 [root, a]", ancestors[0].Slug, ancestors[1].Slug)
	}
}

func TestCheckPermission(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)

	open, _ := svc.CreateCategory("公开", "open", nil, 1, nil)
	restricted, _ := svc.CreateCategory("公告", "notice", nil, 2, map[string]interface{}{
		"restricted": true,
	})

	tests := []struct {
		name       string
		role       string
		categoryID uint64
		want       bool
	}{
		{"普通分类普通用户可发", model.RoleUser, open.ID, true},
		{"受限分类普通用户被拒", model.RoleUser, restricted.ID, false},
		{"受限分类admin放行", model.RoleAdmin, restricted.ID, true},
		{"分类查不到时临时放行", model.RoleUser, 777, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.CheckPermission(tt.role, tt.categoryID, "post:create")
			if got != tt.want {
				t.Errorf("CheckPermission = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestGetBySlug(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)
	svc.CreateCategory("讨论区", "board", nil, 1, nil)

	category, err := svc.GetBySlug("board")
	if err != nil {
		t.Fatalf("按slug查询失败: %v", err)
	}
	if category.Name != "讨论区" {
		t.Errorf("Name = %q, 期望 %q", category.Name, "讨论区")
	}

	if _, err := svc.GetBySlug("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("slug不存在应返回ErrNotFound, 实际: %v", err)
	}
}
