package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/user/cineexplorer/internal/config"
	"github.com/user/cineexplorer/internal/repository"
	"github.com/user/cineexplorer/internal/service"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化源库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层连接失败: %v", err)
	}
	defer sqlDB.Close()

	// 初始化目标库
	client, err := repository.InitMongo(cfg.MongoURI)
	if err != nil {
		log.Fatalf("MongoDB 连接失败: %v", err)
	}
	defer client.Disconnect(context.Background())

	// Ctrl-C 协作式取消，阶段之间与行之间都会检查
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.BuildTimeout)
		defer cancel()
	}

	source := repository.NewSourceRepository(db)
	dest := repository.NewDocumentRepository(client, cfg.MongoDB, cfg.MongoCollection)
	builder := service.NewBuilder(source, dest, cfg.BatchSize)

	log.Printf("开始构建 %s.%s（批大小 %d）", cfg.MongoDB, cfg.MongoCollection, cfg.BatchSize)
	summary, err := builder.Run(ctx)
	if err != nil {
		log.Fatalf("构建失败: %v", err)
	}
	summary.LogSummary()
}
