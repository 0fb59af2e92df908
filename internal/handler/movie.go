package handler

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/cineexplorer/internal/model"
	"github.com/user/cineexplorer/internal/utils"
)

// GetMovie 按 movie_id 返回单个完整文档
func (h *Handler) GetMovie(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		utils.BadRequest(c, "缺少电影 ID")
		return
	}

	if doc, ok := h.docCache.Get(id); ok {
		utils.Success(c, doc)
		return
	}

	doc, err := h.Docs.FindByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[Handler] 查询电影失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}
	if doc == nil {
		utils.NotFound(c, "电影不存在")
		return
	}

	h.docCache.Set(id, doc)
	utils.Success(c, doc)
}

// SearchMovies 标题前缀搜索
func (h *Handler) SearchMovies(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		utils.BadRequest(c, "缺少 title 参数")
		return
	}

	key := "search:" + title
	if docs, ok := h.listCache.Get(key); ok {
		utils.Success(c, docs)
		return
	}

	// singleflight 避免并发请求同一个词
	val, err, _ := h.sf.Do(key, func() (interface{}, error) {
		return h.Docs.SearchByTitle(c.Request.Context(), title, 20)
	})
	if err != nil {
		log.Printf("[Handler] 搜索失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	docs := val.([]model.MovieDocument)
	h.listCache.Set(key, docs)
	utils.Success(c, docs)
}

// TopMovies 某类型、某年份区间内评分最高的 N 部电影
func (h *Handler) TopMovies(c *gin.Context) {
	genre := c.Query("genre")
	if genre == "" {
		utils.BadRequest(c, "缺少 genre 参数")
		return
	}
	yearStart, _ := strconv.Atoi(c.DefaultQuery("year_start", "1900"))
	yearEnd, _ := strconv.Atoi(c.DefaultQuery("year_end", "2100"))
	n, _ := strconv.Atoi(c.DefaultQuery("n", "10"))
	if n <= 0 || n > 100 {
		n = 10
	}

	key := fmt.Sprintf("top:%s:%d:%d:%d", genre, yearStart, yearEnd, n)
	if docs, ok := h.listCache.Get(key); ok {
		utils.Success(c, docs)
		return
	}

	val, err, _ := h.sf.Do(key, func() (interface{}, error) {
		return h.Docs.TopRated(c.Request.Context(), genre, yearStart, yearEnd, int64(n))
	})
	if err != nil {
		log.Printf("[Handler] Top 查询失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	docs := val.([]model.MovieDocument)
	h.listCache.Set(key, docs)
	utils.Success(c, docs)
}

// Stats 集合存储统计
func (h *Handler) Stats(c *gin.Context) {
	const key = "collstats"
	if cached, ok := utils.CacheGet(key); ok {
		utils.Success(c, cached)
		return
	}

	stats, err := h.Docs.Stats(c.Request.Context())
	if err != nil {
		log.Printf("[Handler] 统计失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	utils.CacheSet(key, stats, 5*time.Minute)
	utils.Success(c, stats)
}
