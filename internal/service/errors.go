package service

import "errors"

// 业务错误的封闭集合。在出错现场用fmt.Errorf("%w: ...")包一层具体信息，
// handler层用errors.Is判断种类再映射HTTP状态码，绝不靠匹配错误文案来判断
var (
	// 实体不存在：帖子、评论、分类、父评论
	ErrNotFound = errors.New("资源不存在")
	// 归属校验失败：只能改/删自己的东西
	ErrForbidden = errors.New("没有操作权限")
	// 状态不允许：跨帖回复、编辑已删除的评论
	ErrInvalidState = errors.New("当前状态不允许该操作")
	// 超出限制：评论层级超过上限
	ErrLimitExceeded = errors.New("超出允许的上限")
)
