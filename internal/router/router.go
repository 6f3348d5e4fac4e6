package router

import (
	"net/http"

	"signite/internal/handler"
	"signite/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRouter(userHandler handler.UserHandler, postHandler handler.PostHandler, commentHandler handler.CommentHandler, categoryHandler handler.CategoryHandler) *gin.Engine {
	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	apiV1 := r.Group("/api/v1")
	{
		// 公开读接口
		apiV1.GET("/posts", postHandler.ListPosts)
		apiV1.GET("/posts/count", postHandler.CountPosts)
		apiV1.GET("/posts/search", postHandler.SearchPosts)
		apiV1.GET("/posts/:post_id", postHandler.GetPostByID)
		apiV1.GET("/posts/:post_id/comments", commentHandler.GetCommentTree)
		apiV1.GET("/posts/:post_id/comments/count", commentHandler.GetCommentCount)

		apiV1.GET("/categories", categoryHandler.GetTree)
		apiV1.GET("/categories/children", categoryHandler.GetChildren)
		apiV1.GET("/categories/descendants", categoryHandler.GetDescendants)
		apiV1.GET("/categories/ancestors", categoryHandler.GetAncestors)
		apiV1.GET("/categories/:slug", categoryHandler.GetBySlug)

		apiV1.GET("/tags", postHandler.ListTags)
		apiV1.GET("/tags/:tag_slug/posts", postHandler.ListPostsByTag)

		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", userHandler.Register)
			authGroup.POST("/login", userHandler.Login)
			authGroup.POST("/refresh", userHandler.Refresh)
		}

		// 写接口统一过jwt中间件
		authorized := apiV1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			authorized.GET("/profile", userHandler.GetProfile)

			authorized.POST("/posts", postHandler.CreatePost)
			authorized.PUT("/posts/:post_id", postHandler.UpdatePost)
			authorized.DELETE("/posts/:post_id", postHandler.DeletePost)

			authorized.POST("/posts/:post_id/comments", commentHandler.CreateComment)
			authorized.PUT("/comments/:comment_id", commentHandler.UpdateComment)
			authorized.DELETE("/comments/:comment_id", commentHandler.DeleteComment)

			authorized.POST("/categories", categoryHandler.CreateCategory)
			authorized.POST("/categories/cache/reset", categoryHandler.ResetCache)
		}
	}

	return r
}
