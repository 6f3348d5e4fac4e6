package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"

	"signite/internal/repository"
	"signite/pkg/logger"
	"signite/pkg/rabbitmq"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const QueueComment = "signite.comment.queue"

// 评论事件消息，和server侧的定义保持一致
type CommentMessage struct {
	PostID    uint64 `json:"post_id"`
	CommentID uint64 `json:"comment_id"`
	Action    string `json:"action"` // "created" or "deleted"
}

// 消费者进程：连接MySQL和RabbitMQ，消费评论事件，异步维护posts表的comment_count冗余列
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env文件不存在，使用进程环境变量")
	}
	logger.InitLogger()

	// 连接数据库
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:signite@tcp(127.0.0.1:3306)/signite?charset=utf8mb4&parseTime=True&loc=Local"
	}
	db, err := gorm.Open(gorm_mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到数据库: %v", err)
	}
	// 连接RabbitMQ
	rabbitMQConn, err := rabbitmq.InitRabbitMQ()
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close()

	// 消费端不碰Redis，rdb传nil
	postRepo := repository.NewPostRepository(db, nil)
	consumeCommentEvents(rabbitMQConn, postRepo)
}

// 评论事件消费者：1、通过mq的TCP连接创建channel并声明队列 2、注册消费者
// 3、轮询消息通道，反序列化消息 4、根据Action增/减帖子的评论计数，并对消息做安全确认
func consumeCommentEvents(conn *amqp.Connection, postRepo repository.PostRepository) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Fatalf("无法打开Channel: %v", err)
	}
	defer ch.Close()

	// 队列声明是幂等的，server和consumer谁先起都没关系
	if _, err := ch.QueueDeclare(QueueComment, true, false, false, false, nil); err != nil {
		logger.Log.Fatalf("无法声明队列: %v", err)
	}

	msgs, err := ch.Consume(
		QueueComment, // queue
		"",           // consumer
		false,        // auto-ack: 手动确认，处理成功才Ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		logger.Log.Fatalf("无法注册评论事件消费者: %v", err)
	}
	// 创建一个没有任何缓冲的bool类型通道
	forever := make(chan bool)

	go func() {
		// msgs是通道channel，通道为空不会结束循环，而是“阻塞”等待
		for d := range msgs {
			logCtx := logger.Log.WithField("redelivered", d.Redelivered)
			var msg CommentMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logCtx.WithError(err).Error("消息JSON解析失败")
				// 永久性错误，重试也不会好，Ack掉丢弃
				d.Ack(false)
				continue
			}
			logCtx = logCtx.WithField("post_id", msg.PostID).WithField("comment_id", msg.CommentID).WithField("action", msg.Action)

			var opErr error
			switch msg.Action {
			case "created":
				opErr = postRepo.IncrementCommentCount(msg.PostID)
			case "deleted":
				opErr = postRepo.DecrementCommentCount(msg.PostID)
			default:
				logCtx.Warn("未知的评论事件类型，消息丢弃")
				d.Ack(false)
				continue
			}

			// 根据数据库操作的结果，来决定如何“确认”消息
			if opErr != nil {
				var mysqlErr *mysql.MySQLError
				// 用errors.As检查错误的“根”是不是MySQLError；错误号1213是死锁，重试能好
				if errors.As(opErr, &mysqlErr) && mysqlErr.Number == 1213 {
					logCtx.WithError(opErr).Warn("评论计数更新遇到死锁，消息重新入队重试")
					d.Nack(false, true)
				} else if errors.As(opErr, &mysqlErr) {
					// 其他MySQL错误大概率是数据问题，重试也不会好，Ack掉避免死循环
					logCtx.WithError(opErr).Error("评论计数更新失败（不可重试），消息丢弃")
					d.Ack(false)
				} else {
					// 连接类错误，要求重试
					logCtx.WithError(opErr).Error("评论计数更新失败，消息重新入队重试")
					d.Nack(false, true)
				}
			} else {
				// 处理成功，通知mq将消息删除
				d.Ack(false)
			}
		}
	}()
	logger.Log.Info(" [*] 等待评论事件中. 按 CTRL+C 退出")
	// 从forever通道里接收值，但没有发送者，以此阻止main函数退出
	<-forever
}
