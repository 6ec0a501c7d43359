package rss

import (
	"strings"
	"time"

	"github.com/iabetor/feedrelay/internal/logger"
	"github.com/mmcdole/gofeed"
)

// FeedParserExtractor 使用 gofeed 解析 RSS/Atom/JSON Feed；
// 文档无法解析时退回到模式匹配，保证不规范的订阅源仍能尽量提取。
type FeedParserExtractor struct {
	fallback *PatternExtractor
	now      func() time.Time
}

// NewFeedParserExtractor 创建基于 gofeed 的提取器。
func NewFeedParserExtractor() *FeedParserExtractor {
	return &FeedParserExtractor{
		fallback: NewPatternExtractor(),
		now:      time.Now,
	}
}

// Extract 与 PatternExtractor 使用相同的字段规则和条数上限。
func (e *FeedParserExtractor) Extract(raw, category string) (articles []Article) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[rss] 解析 %s 订阅源失败: %v", category, r)
			articles = []Article{}
		}
	}()

	// gofeed.Parser 内部持有解析状态，不能跨 goroutine 复用。
	feed, err := gofeed.NewParser().ParseString(raw)
	if err != nil {
		logger.Debugf("[rss] gofeed 无法解析 %s 订阅源，改用模式匹配: %v", category, err)
		return e.fallback.Extract(raw, category)
	}

	now := e.now()
	articles = make([]Article, 0, maxItemsPerFeed)
	for _, item := range feed.Items {
		if len(articles) == maxItemsPerFeed {
			break
		}
		if item == nil {
			continue
		}

		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			logger.Debugf("[rss] 跳过缺少标题或链接的条目 (category=%s)", category)
			continue
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		articles = append(articles, newArticle(title, summarize(description), link, itemDate(item, now), category))
	}
	return articles
}

// itemDate 优先使用发布时间，其次更新时间；有原文但 gofeed 解析不了时视为日期未知。
func itemDate(item *gofeed.Item, now time.Time) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(dateLayout)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(dateLayout)
	case strings.TrimSpace(item.Published) != "" || strings.TrimSpace(item.Updated) != "":
		return ""
	default:
		return now.UTC().Format(dateLayout)
	}
}
