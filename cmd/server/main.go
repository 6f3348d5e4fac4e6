package main

import (
	"log"
	"os"

	"signite/internal/data"
	"signite/internal/handler"
	"signite/internal/model"
	"signite/internal/repository"
	"signite/internal/router"
	"signite/internal/service"
	"signite/pkg/logger"
	"signite/pkg/rabbitmq"
	"signite/pkg/redis"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		log.Println(".env文件不存在，使用进程环境变量")
	}
	// 初始化logger
	logger.InitLogger()

	// 初始化Redis
	redisClient, err := redis.InitRedis()
	if err != nil {
		logger.Log.Fatalf("无法连接到Redis: %v", err)
	}
	logger.Log.Info("Redis连接成功")

	// 初始化RabbitMQ
	rabbitMQConn, err := rabbitmq.InitRabbitMQ()
	if err != nil {
		logger.Log.Fatalf("无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close() // 确保程序退出时关闭连接
	logger.Log.Info("RabbitMQ连接成功")

	// 数据源名称，用户名:密码@网络协议(地址:端口号)/数据库名?charset=字符集&parseTime=是否解析时间&loc=时区
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:signite@tcp(127.0.0.1:3306)/signite?charset=utf8mb4&parseTime=True&loc=Local"
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("无法连接到数据库: %v", err)
	}
	logger.Log.Info("数据库连接成功")
	// db.AutoMigrate()：没有这个表就创建，没有属性列则创建列，没有约束则增加约束；不会主动删除和修改
	err = db.AutoMigrate(&model.User{}, &model.Category{}, &model.Tag{}, &model.Post{}, &model.Comment{})
	if err != nil {
		logger.Log.Fatalf("数据库迁移失败: %v", err)
	}
	logger.Log.Info("数据库迁移成功")

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db, redisClient)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db, redisClient)
	tagRepo := repository.NewTagRepository(db)

	uow := data.NewUnitOfWork(db, postRepo, commentRepo)

	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	postService := service.NewPostService(postRepo, tagRepo, categoryService)
	commentService := service.NewCommentService(commentRepo, postRepo, uow, rabbitMQConn)

	userHandler := handler.NewUserHandler(userService)
	postHandler := handler.NewPostHandler(postService)
	commentHandler := handler.NewCommentHandler(commentService)
	categoryHandler := handler.NewCategoryHandler(categoryService)

	r := router.SetupRouter(userHandler, postHandler, commentHandler, categoryHandler)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	logger.Log.Printf("服务器将在: %s端口启动", port)

	if err := r.Run(":" + port); err != nil {
		logger.Log.Fatalf("服务器启动失败: %v", err)
	}
}
