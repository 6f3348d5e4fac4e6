package service

import (
	"errors"
	"testing"

	"signite/internal/data"
	"signite/internal/model"
	"signite/internal/repository"

	"gorm.io/gorm"
)

// 内存版CommentRepository，测试里代替MySQL，ID从1开始自增
type fakeCommentRepo struct {
	nextID   uint64
	comments map[uint64]*model.Comment
	// 记录UpdatePath被调用的次数，验证“先插入再补path”的两步写
	pathUpdates int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1, comments: make(map[uint64]*model.Comment)}
}

func (r *fakeCommentRepo) Create(comment *model.Comment) error {
	comment.ID = r.nextID
	r.nextID++
	saved := *comment
	r.comments[comment.ID] = &saved
	return nil
}

func (r *fakeCommentRepo) FindByID(commentID uint64) (*model.Comment, error) {
	comment, ok := r.comments[commentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	result := *comment
	return &result, nil
}

func (r *fakeCommentRepo) UpdatePath(commentID uint64, path string) error {
	comment, ok := r.comments[commentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	comment.Path = path
	r.pathUpdates++
	return nil
}

func (r *fakeCommentRepo) Save(comment *model.Comment) error {
	saved := *comment
	r.comments[comment.ID] = &saved
	return nil
}

func (r *fakeCommentRepo) FindByPostIDOrderByPath(postID uint64) ([]model.Comment, error) {
	var result []model.Comment
	for _, comment := range r.comments {
		if comment.PostID == postID {
			result = append(result, *comment)
		}
	}
	// 按path字典序，模拟仓库的排序契约
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Path < result[i].Path {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (r *fakeCommentRepo) FindByParentID(parentID uint64) ([]model.Comment, error) {
	var result []model.Comment
	for _, comment := range r.comments {
		if comment.ParentID != nil && *comment.ParentID == parentID {
			result = append(result, *comment)
		}
	}
	return result, nil
}

func (r *fakeCommentRepo) Delete(commentID uint64) error {
	delete(r.comments, commentID)
	return nil
}

func (r *fakeCommentRepo) CountByPostID(postID uint64) (int64, error) {
	var count int64
	for _, comment := range r.comments {
		if comment.PostID == postID && !comment.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeCommentRepo) WithTx(tx *gorm.DB) repository.CommentRepository { return r }

// 内存版PostRepository，评论测试只用得到ExistsByID，其余方法原样空转
type fakePostRepo struct {
	posts map[uint64]bool
}

func (r *fakePostRepo) Create(post *model.Post) error { return nil }
func (r *fakePostRepo) Save(post *model.Post) error   { return nil }
func (r *fakePostRepo) FindByID(postID uint64) (*model.Post, error) {
	if !r.posts[postID] {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Post{BaseModel: model.BaseModel{ID: postID}}, nil
}
func (r *fakePostRepo) ExistsByID(postID uint64) (bool, error) { return r.posts[postID], nil }
func (r *fakePostRepo) FindPage(offset, limit int, categoryID, authorID uint64) ([]model.Post, error) {
	return nil, nil
}
func (r *fakePostRepo) CountPage(categoryID, authorID uint64) (int64, error) { return 0, nil }
func (r *fakePostRepo) Search(query string, offset, limit int) ([]model.Post, error) {
	return nil, nil
}
func (r *fakePostRepo) FindByTagSlug(tagSlug string, offset, limit int) ([]model.Post, error) {
	return nil, nil
}
func (r *fakePostRepo) Delete(postID uint64) error                 { return nil }
func (r *fakePostRepo) IncrementCommentCount(postID uint64) error  { return nil }
func (r *fakePostRepo) DecrementCommentCount(postID uint64) error  { return nil }
func (r *fakePostRepo) IncrementViewCount(postID uint64) error     { return nil }
func (r *fakePostRepo) GetPostCache(postID uint64) (*model.Post, error) { return nil, nil }
func (r *fakePostRepo) SetPostCache(post *model.Post) error        { return nil }
func (r *fakePostRepo) DeletePostCache(postID uint64) error        { return nil }
func (r *fakePostRepo) WithTx(tx *gorm.DB) repository.PostRepository { return r }

// 测试用的工作单元：没有真事务，直接把同一批fake repo喂给业务函数
type fakeUnitOfWork struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

func (u *fakeUnitOfWork) Execute(fn func(repos *data.TransactionalRepositories) error) error {
	return fn(&data.TransactionalRepositories{
		PostRepo:    u.postRepo,
		CommentRepo: u.commentRepo,
	})
}

func setupCommentService(postIDs ...uint64) (CommentService, *fakeCommentRepo) {
	commentRepo := newFakeCommentRepo()
	postRepo := &fakePostRepo{posts: make(map[uint64]bool)}
	for _, id := range postIDs {
		postRepo.posts[id] = true
	}
	uow := &fakeUnitOfWork{postRepo: postRepo, commentRepo: commentRepo}
	// MQ连接传nil，事件发布在测试里静默跳过
	return NewCommentService(commentRepo, postRepo, uow, nil), commentRepo
}

// 一级评论：depth为0，path就是自己的ID，且path是插入后第二步补上的
func TestCreateComment_TopLevel(t *testing.T) {
	svc, repo := setupCommentService(1)

	comment, err := svc.CreateComment(1, 10, "hello", nil)
	if err != nil {
		t.Fatalf("创建一级评论失败: %v", err)
	}
	if comment.ID != 1 {
		t.Errorf("ID = %d, 期望 1", comment.ID)
	}
	if comment.Depth != 0 {
		t.Errorf("Depth = %d, 期望 0", comment.Depth)
	}
	if comment.Path != "1" {
		t.Errorf("Path = %q, 期望 %q", comment.Path, "1")
	}
	if comment.ParentID != nil {
		t.Errorf("一级评论的ParentID应该是nil")
	}
	if repo.pathUpdates != 1 {
		t.Errorf("UpdatePath调用了%d次, 期望恰好1次（两步写）", repo.pathUpdates)
	}
	// path要真的落了库，不只是内存对象上有
	saved, _ := repo.FindByID(1)
	if saved.Path != "1" {
		t.Errorf("库里的Path = %q, 期望 %q", saved.Path, "1")
	}
}

// 回复：depth是父评论+1，path是父path拼上自己的ID
func TestCreateComment_Reply(t *testing.T) {
	svc, _ := setupCommentService(1)

	parent, err := svc.CreateComment(1, 10, "hello", nil)
	if err != nil {
		t.Fatalf("创建一级评论失败: %v", err)
	}
	reply, err := svc.CreateComment(1, 20, "reply", &parent.ID)
	if err != nil {
		t.Fatalf("创建回复失败: %v", err)
	}
	if reply.Depth != 1 {
		t.Errorf("Depth = %d, 期望 1", reply.Depth)
	}
	if reply.Path != "1/2" {
		t.Errorf("Path = %q, 期望 %q", reply.Path, "1/2")
	}

	// 再往下一层，depth到2还允许
	reply2, err := svc.CreateComment(1, 30, "reply deeper", &reply.ID)
	if err != nil {
		t.Fatalf("创建二层回复失败: %v", err)
	}
	if reply2.Depth != 2 || reply2.Path != "1/2/3" {
		t.Errorf("Depth = %d Path = %q, 期望 2 和 %q", reply2.Depth, reply2.Path, "1/2/3")
	}

	// depth为2的评论不能再被回复
	_, err = svc.CreateComment(1, 40, "too deep", &reply2.ID)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("超层级回复应返回ErrLimitExceeded, 实际: %v", err)
	}
}

func TestCreateComment_Guards(t *testing.T) {
	svc, _ := setupCommentService(1, 2)

	// 帖子不存在
	if _, err := svc.CreateComment(99, 10, "hello", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("帖子不存在应返回ErrNotFound, 实际: %v", err)
	}

	// 父评论不存在
	missing := uint64(777)
	if _, err := svc.CreateComment(1, 10, "hello", &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("父评论不存在应返回ErrNotFound, 实际: %v", err)
	}

	// 跨帖回复
	parent, _ := svc.CreateComment(1, 10, "on post 1", nil)
	if _, err := svc.CreateComment(2, 20, "cross post", &parent.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("跨帖回复应返回ErrInvalidState, 实际: %v", err)
	}
}

// 评论树：每条未删评论恰好出现一次，回复挂在正确的父节点下，总数和Count一致
func TestGetCommentTree(t *testing.T) {
	svc, _ := setupCommentService(1)

	root1, _ := svc.CreateComment(1, 10, "first", nil)
	root2, _ := svc.CreateComment(1, 20, "second", nil)
	reply, _ := svc.CreateComment(1, 30, "reply to first", &root1.ID)
	svc.CreateComment(1, 40, "deep reply", &reply.ID)

	roots, childrenMap, err := svc.GetCommentTree(1)
	if err != nil {
		t.Fatalf("获取评论树失败: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("根评论数 = %d, 期望 2", len(roots))
	}
	// path序决定根的顺序
	if roots[0].ID != root1.ID || roots[1].ID != root2.ID {
		t.Errorf("根评论顺序错误: [%d, %d]", roots[0].ID, roots[1].ID)
	}
	if len(childrenMap[root1.ID]) != 1 {
		t.Errorf("root1的子评论数 = %d, 期望 1", len(childrenMap[root1.ID]))
	}
	if len(childrenMap[reply.ID]) != 1 {
		t.Errorf("reply的子评论数 = %d, 期望 1", len(childrenMap[reply.ID]))
	}

	// 树里的节点总数 = 未删评论数
	total := len(roots)
	for _, children := range childrenMap {
		total += len(children)
	}
	count, _ := svc.CountComments(1)
	if int64(total) != count {
		t.Errorf("树节点总数 = %d, Count = %d, 两者应相等", total, count)
	}
}

func TestUpdateComment(t *testing.T) {
	svc, repo := setupCommentService(1)
	comment, _ := svc.CreateComment(1, 10, "original", nil)

	// 不是作者
	if _, err := svc.UpdateComment(comment.ID, 99, "hacked"); !errors.Is(err, ErrForbidden) {
		t.Errorf("非作者编辑应返回ErrForbidden, 实际: %v", err)
	}

	// 正常编辑
	updated, err := svc.UpdateComment(comment.ID, 10, "edited")
	if err != nil {
		t.Fatalf("编辑失败: %v", err)
	}
	if updated.Content != "edited" {
		t.Errorf("Content = %q, 期望 %q", updated.Content, "edited")
	}

	// 评论不存在
	if _, err := svc.UpdateComment(777, 10, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("评论不存在应返回ErrNotFound, 实际: %v", err)
	}

	// 已删除的不能编辑
	saved, _ := repo.FindByID(comment.ID)
	saved.IsDeleted = true
	repo.Save(saved)
	if _, err := svc.UpdateComment(comment.ID, 10, "after delete"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("编辑已删评论应返回ErrInvalidState, 实际: %v", err)
	}
}

// 删除：没回复的硬删整行，有回复的只置IsDeleted
func TestDeleteComment(t *testing.T) {
	svc, repo := setupCommentService(1)

	// 没回复 → 硬删
	lonely, _ := svc.CreateComment(1, 10, "lonely", nil)
	if err := svc.DeleteComment(lonely.ID, 10); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := repo.FindByID(lonely.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("无回复的评论应被硬删, FindByID err: %v", err)
	}

	// 有回复 → 软删，行还在
	parent, _ := svc.CreateComment(1, 10, "parent", nil)
	svc.CreateComment(1, 20, "child", &parent.ID)
	if err := svc.DeleteComment(parent.ID, 10); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	saved, err := repo.FindByID(parent.ID)
	if err != nil {
		t.Fatalf("软删后评论行应该还在: %v", err)
	}
	if !saved.IsDeleted {
		t.Errorf("有回复的评论应被置IsDeleted")
	}

	// 软删的评论还留在树里撑结构，但不计入Count
	roots, childrenMap, _ := svc.GetCommentTree(1)
	found := false
	for _, root := range roots {
		if root.ID == parent.ID && len(childrenMap[root.ID]) == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("软删的评论应带着子回复留在树里")
	}
	count, _ := svc.CountComments(1)
	if count != 1 {
		t.Errorf("Count = %d, 期望 1（软删的不计） ", count)
	}

	// 归属校验
	other, _ := svc.CreateComment(1, 10, "mine", nil)
	if err := svc.DeleteComment(other.ID, 99); !errors.Is(err, ErrForbidden) {
		t.Errorf("非作者删除应返回ErrForbidden, 实际: %v", err)
	}
}
