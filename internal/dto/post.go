package dto

import (
	"time"

	"signite/internal/model"
)

// UserInfo 是在DTO中使用的、简化的用户信息
type UserInfo struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// PostResponse 是帖子的响应结构
type PostResponse struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CategoryID   uint64    `json:"category_id"`
	Author       UserInfo  `json:"author"`
	Tags         []string  `json:"tags"`
	CommentCount uint64    `json:"comment_count"`
	ViewCount    uint64    `json:"view_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToPostResponse(post *model.Post) *PostResponse {
	response := &PostResponse{
		ID:           post.ID,
		Title:        post.Title,
		Content:      post.Content,
		CategoryID:   post.CategoryID,
		Tags:         make([]string, 0, len(post.Tags)),
		CommentCount: post.CommentCount,
		ViewCount:    post.ViewCount,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
	// 安全地填充作者信息，Preload失败时Author是零值，ID为0就不填
	if post.Author.ID != 0 {
		response.Author = UserInfo{
			ID:       post.Author.ID,
			Username: post.Author.Username,
		}
	}
	for _, tag := range post.Tags {
		response.Tags = append(response.Tags, tag.Name)
	}
	return response
}

func ToPostResponses(posts []model.Post) []PostResponse {
	// 创建一个有预估容量的切片，性能稍好
	responses := make([]PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, *ToPostResponse(&posts[i]))
	}
	return responses
}
