package data

import (
	"signite/internal/repository"

	"gorm.io/gorm"
)

// UnitOfWork 定义了事务管理器的接口
type UnitOfWork interface {
	// Execute 将一个函数包裹在数据库事务中执行。
	// 它会为这个函数提供能在事务中工作的 Repositories。
	Execute(func(repos *TransactionalRepositories) error) error
}

// TransactionalRepositories 持有所有需要在同一个事务中操作的 Repository。
// 评论创建是两步写（先插入拿ID，再补物化路径），必须在一个事务里，
// 否则进程在两步之间挂掉会留下path为空的行，破坏按path排序的树组装
type TransactionalRepositories struct {
	PostRepo    repository.PostRepository
	CommentRepo repository.CommentRepository
}

// db是事务的入口和管理者
type gormUnitOfWork struct {
	db          *gorm.DB
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

// NewUnitOfWork 创建一个新的、基于GORM的“工作单元”。
// 注意，它接收的是原始的、非事务的 repositories。
func NewUnitOfWork(db *gorm.DB, postRepo repository.PostRepository, commentRepo repository.CommentRepository) UnitOfWork {
	return &gormUnitOfWork{
		db:          db,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

// 契约：fn func(repos *TransactionalRepositories) error
// 为fn创建事务，把绑定了事务的Repo副本“注入”进去，fn的返回值决定提交还是回滚
func (u *gormUnitOfWork) Execute(fn func(repos *TransactionalRepositories) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		transactionalRepos := &TransactionalRepositories{
			PostRepo:    u.postRepo.WithTx(tx),
			CommentRepo: u.commentRepo.WithTx(tx),
		}
		return fn(transactionalRepos)
	})
}
