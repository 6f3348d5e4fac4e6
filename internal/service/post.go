package service

import (
	"errors"
	"fmt"
	"strings"

	"signite/internal/model"
	"signite/internal/repository"
	"signite/pkg/logger"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type PostService interface {
	// 发帖。分类必须存在，受限分类还要过权限检查；标签按名字找不到就现建
	CreatePost(authorID uint64, authorRole, title, content string, categoryID uint64, tags []string) (*model.Post, error)
	// 读单帖，缓存+SingleFlight，顺手加一次浏览数
	GetPostByID(postID uint64) (*model.Post, error)
	// 分页列表，categoryID/authorID为0表示不过滤
	ListPosts(page, pageSize int, categoryID, authorID uint64) ([]model.Post, error)
	CountPosts(categoryID, authorID uint64) (int64, error)
	SearchPosts(query string, page, pageSize int) ([]model.Post, error)
	ListPostsByTag(tagSlug string, page, pageSize int) ([]model.Post, error)
	UpdatePost(postID, userID uint64, title, content string, tags []string) (*model.Post, error)
	DeletePost(postID, userID uint64) error
	ListTags() ([]model.Tag, error)
}

type postService struct {
	sf singleflight.Group

	postRepo        repository.PostRepository
	tagRepo         repository.TagRepository
	categoryService CategoryService
}

func NewPostService(postRepo repository.PostRepository, tagRepo repository.TagRepository, categoryService CategoryService) PostService {
	return &postService{
		postRepo:        postRepo,
		tagRepo:         tagRepo,
		categoryService: categoryService,
	}
}

// 标签名转slug：小写、空格换成连字符。够用的最简规则
func tagSlug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}

// 发帖：1、校验分类存在 2、受限分类走权限检查 3、攒齐标签（没有就建） 4、插入帖子
func (s *postService) CreatePost(authorID uint64, authorRole, title, content string, categoryID uint64, tags []string) (*model.Post, error) {
	// 分类必须真实存在，权限检查的“查不到就放行”兜底不能替代存在性校验
	if _, err := s.categoryService.GetByID(categoryID); err != nil {
		return nil, err
	}
	if !s.categoryService.CheckPermission(authorRole, categoryID, "can_create_post") {
		return nil, fmt.Errorf("%w: 该分类不允许发帖", ErrForbidden)
	}

	tagModels := make([]model.Tag, 0, len(tags))
	for _, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.tagRepo.FindOrCreate(name, tagSlug(name))
		if err != nil {
			return nil, err
		}
		tagModels = append(tagModels, *tag)
	}

	newPost := &model.Post{
		AuthorID:   authorID,
		CategoryID: categoryID,
		Title:      title,
		Content:    content,
		Tags:       tagModels,
	}
	if err := s.postRepo.Create(newPost); err != nil {
		return nil, err
	}
	// 创建成功后带着关联数据再查一次，把Author和Tags都Preload出来
	return s.postRepo.FindByID(newPost.ID)
}

// 读单帖：1、查缓存 2、未命中走SingleFlight回源并回填 3、浏览数+1（异步语义，失败不影响读）
func (s *postService) GetPostByID(postID uint64) (*model.Post, error) {
	post, err := s.postRepo.GetPostCache(postID)
	if err == nil && post != nil {
		// 缓存命中也要计浏览数
		if incErr := s.postRepo.IncrementViewCount(postID); incErr != nil {
			logger.Log.WithError(incErr).WithField("post_id", postID).Warn("浏览数更新失败")
		}
		return post, nil
	}
	// 不是缓存没有，而是Redis本身出错了，记日志继续回源
	if err != nil {
		logger.Log.WithError(err).Warn("帖子缓存读取失败，回源数据库")
	}
	// 缓存未命中，同一帖子的并发回源合并成一次数据库查询
	key := fmt.Sprintf("get_post_%d", postID)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		dbPost, dbErr := s.postRepo.FindByID(postID)
		if dbErr != nil {
			return nil, dbErr
		}
		// 查询成功后写回缓存
		_ = s.postRepo.SetPostCache(dbPost)
		return dbPost, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 帖子不存在", ErrNotFound)
		}
		return nil, err
	}
	if incErr := s.postRepo.IncrementViewCount(postID); incErr != nil {
		logger.Log.WithError(incErr).WithField("post_id", postID).Warn("浏览数更新失败")
	}
	// 返回值是interface{}，需要断言
	return result.(*model.Post), nil
}

func (s *postService) ListPosts(page, pageSize int, categoryID, authorID uint64) ([]model.Post, error) {
	offset, limit := normalizePage(page, pageSize)
	return s.postRepo.FindPage(offset, limit, categoryID, authorID)
}

func (s *postService) CountPosts(categoryID, authorID uint64) (int64, error) {
	return s.postRepo.CountPage(categoryID, authorID)
}

func (s *postService) SearchPosts(query string, page, pageSize int) ([]model.Post, error) {
	offset, limit := normalizePage(page, pageSize)
	return s.postRepo.Search(query, offset, limit)
}

func (s *postService) ListPostsByTag(tagSlug string, page, pageSize int) ([]model.Post, error) {
	// 先确认标签存在，不存在就明确404而不是空列表
	if _, err := s.tagRepo.FindBySlug(tagSlug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 标签不存在", ErrNotFound)
		}
		return nil, err
	}
	offset, limit := normalizePage(page, pageSize)
	return s.postRepo.FindByTagSlug(tagSlug, offset, limit)
}

// 编辑帖子：1、帖子要存在 2、只有作者能改 3、标签全量替换 4、缓存失效
func (s *postService) UpdatePost(postID, userID uint64, title, content string, tags []string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 帖子不存在", ErrNotFound)
		}
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, fmt.Errorf("%w: 只能编辑自己的帖子", ErrForbidden)
	}
	if title != "" {
		post.Title = title
	}
	if content != "" {
		post.Content = content
	}
	if tags != nil {
		tagModels := make([]model.Tag, 0, len(tags))
		for _, name := range tags {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			tag, err := s.tagRepo.FindOrCreate(name, tagSlug(name))
			if err != nil {
				return nil, err
			}
			tagModels = append(tagModels, *tag)
		}
		post.Tags = tagModels
	}
	if err := s.postRepo.Save(post); err != nil {
		return nil, err
	}
	// 改完让缓存失效，下次读回源拿新数据
	if err := s.postRepo.DeletePostCache(postID); err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Warn("帖子缓存失效失败")
	}
	return post, nil
}

// 删帖：帖子要存在且是自己的，删完缓存同步失效
func (s *postService) DeletePost(postID, userID uint64) error {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 帖子不存在", ErrNotFound)
		}
		return err
	}
	if post.AuthorID != userID {
		return fmt.Errorf("%w: 只能删除自己的帖子", ErrForbidden)
	}
	if err := s.postRepo.Delete(postID); err != nil {
		return err
	}
	if err := s.postRepo.DeletePostCache(postID); err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Warn("帖子缓存失效失败")
	}
	return nil
}

func (s *postService) ListTags() ([]model.Tag, error) {
	return s.tagRepo.FindAll()
}

// 分页参数兜底，page从1开始，pageSize限制在(0, 100]
func normalizePage(page, pageSize int) (offset, limit int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}
