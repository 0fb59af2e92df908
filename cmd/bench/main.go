package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/user/cineexplorer/internal/config"
	"github.com/user/cineexplorer/internal/repository"
	"github.com/user/cineexplorer/internal/service"
)

func main() {
	title := flag.String("title", "The Godfather", "用于对比的电影标题")
	iterations := flag.Int("n", 20, "每条路径的执行次数")
	flag.Parse()

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

	client, err := repository.InitMongo(cfg.MongoURI)
	if err != nil {
		log.Fatalf("MongoDB 连接失败: %v", err)
	}
	defer client.Disconnect(context.Background())

	ctx := context.Background()
	dest := repository.NewDocumentRepository(client, cfg.MongoDB, cfg.MongoCollection)
	bench := service.NewBench(db, dest)

	result, err := bench.Run(ctx, *title, *iterations)
	if err != nil {
		log.Fatalf("对比失败: %v", err)
	}
	result.LogResult()

	report, err := bench.Storage(ctx)
	if err != nil {
		log.Fatalf("存储统计失败: %v", err)
	}
	log.Printf("[Bench] 文档集合: %d 个文档 / %d 字节（平均 %d 字节）",
		report.Collection.Count, report.Collection.Size, report.Collection.AvgObjSize)
	for _, rs := range report.Relations {
		log.Printf("[Bench]   %-12s %10d 行 %12d 字节", rs.Name, rs.Rows, rs.Bytes)
	}
	log.Printf("[Bench] 关系表合计: %d 字节", report.TotalBytes)
}
