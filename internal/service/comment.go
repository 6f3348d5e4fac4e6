package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"signite/internal/data"
	"signite/internal/model"
	"signite/internal/repository"
	"signite/pkg/logger"

	"github.com/streadway/amqp"
	"gorm.io/gorm"
)

const (
	// 遵循：项目名.业务领域.实体/功能
	QueueComment = "signite.comment.queue"

	ActionCommentCreated = "created"
	ActionCommentDeleted = "deleted"
)

// CommentMessage 定义了评论事件在MQ中传递的消息结构，consumer据此维护posts表的评论计数
type CommentMessage struct {
	PostID    uint64 `json:"post_id"`
	CommentID uint64 `json:"comment_id"`
	Action    string `json:"action"` // "created" or "deleted"
}

type CommentService interface {
	// 创建评论。parentID为nil是一级评论，否则是对已有评论的回复
	CreateComment(postID, authorID uint64, content string, parentID *uint64) (*model.Comment, error)
	// 取一个帖子的完整评论树：返回path序的根评论列表 + parentID到子评论的分组
	GetCommentTree(postID uint64) ([]*model.Comment, map[uint64][]*model.Comment, error)
	// 编辑评论内容，只有作者本人可以
	UpdateComment(commentID, userID uint64, content string) (*model.Comment, error)
	// 删除评论：有回复就软删（保住树形结构），没回复就硬删
	DeleteComment(commentID, userID uint64) error
	// 未删除的评论数
	CountComments(postID uint64) (int64, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	uow         data.UnitOfWork

	rabbitMQConn *amqp.Connection
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, uow data.UnitOfWork, conn *amqp.Connection) CommentService {
	if conn != nil {
		ch, err := conn.Channel()
		if err == nil {
			defer ch.Close()
			// 有就不用创建（幂等），durable保证MQ重启后队列还在
			ch.QueueDeclare(QueueComment, true, false, false, false, nil)
		}
	}

	return &commentService{
		commentRepo:  commentRepo,
		postRepo:     postRepo,
		uow:          uow,
		rabbitMQConn: conn,
	}
}

// 创建评论：1、确认帖子存在 2、回复则校验父评论（同帖、层级未超限）
// 3、两步写入一个事务：插入拿到ID，再用ID补物化路径 4、发评论事件
// path必须等插入后才能算（里面有自己的ID），所以是先Create再UpdatePath，事务保证不会留下空path的行
func (s *commentService) CreateComment(postID, authorID uint64, content string, parentID *uint64) (*model.Comment, error) {
	exists, err := s.postRepo.ExistsByID(postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: 帖子不存在", ErrNotFound)
	}

	newComment := &model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
		// ParentID为nil、Depth为0就是一级评论
	}
	var parentPath string

	if parentID != nil {
		parent, err := s.commentRepo.FindByID(*parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: 回复的评论不存在", ErrNotFound)
			}
			return nil, err
		}
		// 不允许跨帖回复
		if parent.PostID != postID {
			return nil, fmt.Errorf("%w: 不能回复其他帖子下的评论", ErrInvalidState)
		}
		// 层级上限：对depth已达上限的评论再回复会超出
		if parent.Depth >= model.MaxCommentDepth {
			return nil, fmt.Errorf("%w: 评论层级已达上限", ErrLimitExceeded)
		}
		newComment.ParentID = parentID
		newComment.Depth = parent.Depth + 1
		parentPath = parent.Path
	}

	err = s.uow.Execute(func(repos *data.TransactionalRepositories) error {
		if err := repos.CommentRepo.Create(newComment); err != nil {
			return err
		}
		// 插入成功后数据库分配的ID已经写回newComment.ID，现在才能拼path
		path := strconv.FormatUint(newComment.ID, 10)
		if parentPath != "" {
			path = parentPath + "/" + path
		}
		newComment.Path = path
		return repos.CommentRepo.UpdatePath(newComment.ID, path)
	})
	if err != nil {
		return nil, err
	}

	// 事务提交后再发事件。发送失败只记日志，评论本身已经成功，计数靠下次对账
	s.publishCommentMessage(CommentMessage{
		PostID:    postID,
		CommentID: newComment.ID,
		Action:    ActionCommentCreated,
	})

	return newComment, nil
}

// 获取评论树：1、按path序拉出该帖全部评论（含软删的，它们要撑住子回复的位置）
// 2、一趟循环按ParentID分组 3、ParentID为nil的就是根。
// path字典序已经是“深度优先+兄弟有序”，分组时保持原序即可，整个组装是O(n)
func (s *commentService) GetCommentTree(postID uint64) ([]*model.Comment, map[uint64][]*model.Comment, error) {
	comments, err := s.commentRepo.FindByPostIDOrderByPath(postID)
	if err != nil {
		return nil, nil, err
	}

	roots := make([]*model.Comment, 0)
	childrenMap := make(map[uint64][]*model.Comment)
	for i := range comments {
		comment := &comments[i]
		if comment.ParentID == nil {
			roots = append(roots, comment)
		} else {
			childrenMap[*comment.ParentID] = append(childrenMap[*comment.ParentID], comment)
		}
	}
	return roots, childrenMap, nil
}

// 编辑评论：1、评论要存在 2、只有作者本人能改 3、已删除的不能再改
func (s *commentService) UpdateComment(commentID, userID uint64, content string) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 评论不存在", ErrNotFound)
		}
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, fmt.Errorf("%w: 只能编辑自己的评论", ErrForbidden)
	}
	if comment.IsDeleted {
		return nil, fmt.Errorf("%w: 评论已删除，不能编辑", ErrInvalidState)
	}
	comment.Content = content
	if err := s.commentRepo.Save(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// 删除评论：1、评论要存在且是自己的 2、有直接回复就置IsDeleted软删，
// 保住子回复在树里的位置 3、一条回复都没有就直接硬删整行
func (s *commentService) DeleteComment(commentID, userID uint64) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: 评论不存在", ErrNotFound)
		}
		return err
	}
	if comment.AuthorID != userID {
		return fmt.Errorf("%w: 只能删除自己的评论", ErrForbidden)
	}
	// 已经软删过的不重复删，防止计数被多减一次
	if comment.IsDeleted {
		return fmt.Errorf("%w: 评论已删除", ErrInvalidState)
	}

	replies, err := s.commentRepo.FindByParentID(commentID)
	if err != nil {
		return err
	}
	if len(replies) > 0 {
		comment.IsDeleted = true
		if err := s.commentRepo.Save(comment); err != nil {
			return err
		}
	} else {
		if err := s.commentRepo.Delete(commentID); err != nil {
			return err
		}
	}

	s.publishCommentMessage(CommentMessage{
		PostID:    comment.PostID,
		CommentID: commentID,
		Action:    ActionCommentDeleted,
	})
	return nil
}

func (s *commentService) CountComments(postID uint64) (int64, error) {
	return s.commentRepo.CountByPostID(postID)
}

// 私有方法，发评论事件到RabbitMQ：1、开临时channel 2、序列化消息 3、持久化发布
// 发布失败不影响评论主流程，只打严重日志供人工对账
func (s *commentService) publishCommentMessage(msg CommentMessage) {
	if s.rabbitMQConn == nil {
		return
	}
	// 为每一个消息建立一个单独的channel，消息之间互不影响
	ch, err := s.rabbitMQConn.Channel()
	if err != nil {
		logger.Log.WithError(err).Error("评论事件发送失败：无法打开channel")
		return
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		logger.Log.WithError(err).Error("评论事件序列化失败")
		return
	}

	err = ch.Publish(
		"",           // exchange默认交换机
		QueueComment, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // 确保消息持久化
		})
	if err != nil {
		logger.Log.WithError(err).
			WithField("post_id", msg.PostID).
			WithField("comment_id", msg.CommentID).
			Error("【严重】评论事件投递失败！帖子评论计数可能失准，需人工核对")
	}
}
