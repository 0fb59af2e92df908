package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/cineexplorer/internal/config"
	"github.com/user/cineexplorer/internal/handler"
	"github.com/user/cineexplorer/internal/middleware"
	"github.com/user/cineexplorer/internal/repository"
	"github.com/user/cineexplorer/internal/router"
	"github.com/user/cineexplorer/internal/utils"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化目标库（读侧只需要文档集合）
	client, err := repository.InitMongo(cfg.MongoURI)
	if err != nil {
		log.Fatalf("MongoDB 连接失败: %v", err)
	}
	defer client.Disconnect(context.Background())

	docs := repository.NewDocumentRepository(client, cfg.MongoDB, cfg.MongoCollection)

	// 初始化缓存
	utils.InitCache()

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 中间件
	r.Use(middleware.Logger())

	// 初始化 Handler 并注册路由
	h := handler.NewHandler(docs, cfg)
	router.RegisterRoutes(r, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	srv := &http.Server{
		Addr:           ":" + port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Printf("%s 查询服务启动于 http://localhost:%s", cfg.SiteName, port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	log.Println("服务器已退出")
}
