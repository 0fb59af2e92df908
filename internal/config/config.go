package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env             string
	DatabaseURL     string // Postgres 规范化数据源
	MongoURI        string // MongoDB 目标文档库
	MongoDB         string
	MongoCollection string
	BatchSize       int           // 批量写入大小
	BuildTimeout    time.Duration // 整体构建超时，0 表示不限制
	CSVDir          string        // CSV 数据目录（导入用）
	Port            string
	SiteName        string
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "cineexplorer")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	batchSize, _ := strconv.Atoi(getEnv("BATCH_SIZE", "1000"))
	if batchSize <= 0 {
		batchSize = 1000
	}

	timeoutMin, _ := strconv.Atoi(getEnv("BUILD_TIMEOUT_MINUTES", "0"))

	return &Config{
		Env:             getEnv("APP_ENV", "development"),
		DatabaseURL:     dbURL,
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "cineexplorer"),
		MongoCollection: getEnv("MONGO_COLLECTION", "movies_complete"),
		BatchSize:       batchSize,
		BuildTimeout:    time.Duration(timeoutMin) * time.Minute,
		CSVDir:          getEnv("CSV_DIR", "./data/csv"),
		Port:            getEnv("PORT", "5007"),
		SiteName:        getEnv("SITE_NAME", "CineExplorer"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
