package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iabetor/feedrelay/internal/logger"
	"github.com/iabetor/feedrelay/internal/rss"
)

const (
	cacheControl    = "public, max-age=86400, s-maxage=86400"
	fetchFailedMsg  = "Failed to fetch RSS feeds"
	jsonContentType = "application/json"
	// 与 JavaScript Date.toISOString 的格式一致
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

type ArticleCollector interface {
	Collect(ctx context.Context) ([]rss.Article, error)
}

type FeedHandler struct {
	collector ArticleCollector
	sources   int
	now       func() time.Time
}

func NewFeedHandler(collector ArticleCollector, sources int) *FeedHandler {
	return &FeedHandler{collector: collector, sources: sources, now: time.Now}
}

// GetArticles 抓取全部订阅源并返回按日期排序的文章列表。
func (h *FeedHandler) GetArticles(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[handler] 处理 RSS 请求时发生 panic: %v", r)
			h.fail(c)
		}
	}()

	res, err := h.Build(c.Request.Context())
	if err != nil {
		logger.Errorf("[handler] 获取 RSS 订阅源失败: %v", err)
		h.fail(c)
		return
	}

	c.Header("Cache-Control", cacheControl)
	// 已设置 Content-Type 时 gin 不会再追加 charset
	c.Header("Content-Type", jsonContentType)
	c.JSON(http.StatusOK, res)
}

// Build 执行一次聚合并生成成功响应体，供 HTTP 接口和命令行共用。
func (h *FeedHandler) Build(ctx context.Context) (FeedResponse, error) {
	articles, err := h.collector.Collect(ctx)
	if err != nil {
		return FeedResponse{}, err
	}
	if articles == nil {
		articles = []rss.Article{}
	}

	return FeedResponse{
		Success:     true,
		Articles:    articles,
		Count:       len(articles),
		LastUpdated: h.now().UTC().Format(isoMillis),
	}, nil
}

func (h *FeedHandler) fail(c *gin.Context) {
	if c.Writer.Written() {
		return
	}
	c.Writer.Header().Del("Cache-Control")
	c.Header("Content-Type", jsonContentType)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success:  false,
		Error:    fetchFailedMsg,
		Articles: []rss.Article{},
	})
}

func (h *FeedHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Sources: h.sources})
}
