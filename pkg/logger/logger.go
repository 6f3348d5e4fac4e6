package logger

import (
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
)

// Log 是一个全局的 logrus 实例。未经InitLogger配置时是裸的默认logger，
// 保证任何代码路径（包括单测）随时可用
var Log = logrus.New()

// InitLogger 配置全局的Logger实例
func InitLogger() {
	// 1. 日志格式设为JSON，结构化之后便于ELK、Loki这类工具做聚合分析
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05", // 自定义时间格式
	})

	// 2. 日志同时输出到文件和控制台
	file, err := os.OpenFile("signite.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("无法打开日志文件: %v", err)
	}

	// io.MultiWriter可以同时向多个Writer输出
	mw := io.MultiWriter(os.Stdout, file)
	Log.SetOutput(mw)

	// 3. 日志级别，开发时可以调成Debug，生产环境Info
	Log.SetLevel(logrus.InfoLevel)
}
