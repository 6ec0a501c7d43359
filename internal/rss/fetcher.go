package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iabetor/feedrelay/internal/logger"
)

const defaultMaxBodyBytes = 10 << 20

// FetcherOptions 抓取器选项，零值表示使用默认值。
type FetcherOptions struct {
	UserAgent string
	// Timeout 为 0 时不设置客户端超时，依赖传输层默认行为。
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Fetcher 负责抓取单个订阅源并交给 Extractor 提取文章。
type Fetcher struct {
	client    *http.Client
	extractor Extractor
	userAgent string
	maxBody   int64
}

// NewFetcher 创建 RSS 抓取器。
func NewFetcher(extractor Extractor, opts FetcherOptions) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		extractor: extractor,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
}

// Fetch 抓取订阅源并返回提取出的文章。
// 网络错误或非 2xx 状态只记录日志，返回空结果。
func (f *Fetcher) Fetch(ctx context.Context, src Source) []Article {
	body, err := f.download(ctx, src.URL)
	if err != nil {
		logger.Warnf("[rss] 获取 %s 订阅源失败 (key=%s, url=%s): %v", src.Category, src.Key, src.URL, err)
		return []Article{}
	}

	articles := f.extractor.Extract(body, src.Category)
	logger.Debugf("[rss] %s 订阅源提取到 %d 篇文章", src.Category, len(articles))
	return articles
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}
	if int64(len(data)) > f.maxBody {
		// 截断后仍按尽力而为的方式提取已完整的条目。
		logger.Warnf("[rss] 响应超过 %d 字节，已截断: %s", f.maxBody, url)
		data = data[:f.maxBody]
	}
	return string(data), nil
}
