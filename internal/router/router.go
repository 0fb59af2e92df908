package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/cineexplorer/internal/handler"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 只读查询接口 ====================
	api := r.Group("/api")
	{
		api.GET("/movies", h.SearchMovies)
		api.GET("/movies/:id", h.GetMovie)
		api.GET("/top", h.TopMovies)
		api.GET("/stats", h.Stats)
	}
}
