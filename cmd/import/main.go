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

	cfg := config.Load()

	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层连接失败: %v", err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	importer := service.NewImporter(db, cfg.CSVDir)

	if err := importer.CreateSchema(ctx); err != nil {
		log.Fatalf("建表失败: %v", err)
	}

	log.Printf("从 %s 导入 CSV...", cfg.CSVDir)
	if err := importer.ImportAll(ctx); err != nil {
		log.Fatalf("导入失败: %v", err)
	}
	log.Println("导入完成")
}
