package handler

import (
	"time"

	"github.com/user/cineexplorer/internal/config"
	"github.com/user/cineexplorer/internal/model"
	"github.com/user/cineexplorer/internal/repository"
	"github.com/user/cineexplorer/internal/utils"
	"golang.org/x/sync/singleflight"
)

// Handler HTTP 处理器，读侧只查文档集合，不碰关系库
type Handler struct {
	Docs   *repository.DocumentRepository
	Config *config.Config

	// 查询结果缓存，重建集合后随 TTL 自然失效
	listCache *utils.QueryCache[[]model.MovieDocument]
	docCache  *utils.QueryCache[*model.MovieDocument]
	sf        singleflight.Group
}

// NewHandler 创建处理器
func NewHandler(docs *repository.DocumentRepository, cfg *config.Config) *Handler {
	return &Handler{
		Docs:      docs,
		Config:    cfg,
		listCache: utils.NewQueryCache[[]model.MovieDocument](1000, 10*time.Minute),
		docCache:  utils.NewQueryCache[*model.MovieDocument](5000, 10*time.Minute),
	}
}
