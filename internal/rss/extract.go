package rss

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iabetor/feedrelay/internal/logger"
)

// 解析模式。
const (
	ModePattern = "pattern"
	ModeGofeed  = "gofeed"
)

var (
	itemRe        = regexp.MustCompile(`(?s)<item(?:\s[^>]*)?>(.*?)</item>`)
	titleRe       = fieldPattern("title")
	descriptionRe = fieldPattern("description")
	linkRe        = fieldPattern("link")
	pubDateRe     = fieldPattern("pubDate")
	tagRe         = regexp.MustCompile(`<[^>]*>`)

	cdataReplacer  = strings.NewReplacer("<![CDATA[", "", "]]>", "")
	markupReplacer = strings.NewReplacer("<", "", ">", "")
)

// RFC 822 北美时区缩写。time.Parse 遇到本地时区之外的缩写时偏移量记为 0，需要手动修正。
var zoneOffsets = map[string]int{
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// pubDate 常见格式，按出现频率排列。
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04 -0700",
	"Mon, 02 Jan 2006 15:04 MST",
	"02 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + name + `(?:\s[^>]*)?>(.*?)</` + name + `>`)
}

// Extractor 将订阅源原文转换为文章记录。
// 实现必须吞掉所有内部错误：出错时返回空结果，而不是 panic 或返回 error。
type Extractor interface {
	Extract(raw, category string) []Article
}

// NewExtractor 按解析模式创建 Extractor。
func NewExtractor(mode string) (Extractor, error) {
	switch strings.ToLower(mode) {
	case ModePattern, "":
		return NewPatternExtractor(), nil
	case ModeGofeed:
		return NewFeedParserExtractor(), nil
	default:
		return nil, fmt.Errorf("不支持的解析模式: %s", mode)
	}
}

// PatternExtractor 用正则匹配 <item> 块提取字段，容忍缺失闭合标签、游离 CDATA 等不规范标记。
type PatternExtractor struct {
	now func() time.Time
}

// NewPatternExtractor 创建基于模式匹配的提取器。
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{now: time.Now}
}

// Extract 按文档顺序返回最多 10 条文章，缺少标题或链接的条目被跳过。
func (e *PatternExtractor) Extract(raw, category string) (articles []Article) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[rss] 解析 %s 订阅源失败: %v", category, r)
			articles = []Article{}
		}
	}()

	now := e.now()
	articles = make([]Article, 0, maxItemsPerFeed)
	for _, m := range itemRe.FindAllStringSubmatch(raw, -1) {
		if len(articles) == maxItemsPerFeed {
			break
		}
		block := m[1]

		title := cleanText(matchField(titleRe, block))
		link := cleanText(matchField(linkRe, block))
		if title == "" || link == "" {
			logger.Debugf("[rss] 跳过缺少标题或链接的条目 (category=%s)", category)
			continue
		}

		summary := summarize(cleanText(matchField(descriptionRe, block)))
		pubDate := strings.TrimSpace(matchField(pubDateRe, block))

		articles = append(articles, newArticle(title, summary, link, normalizeDate(pubDate, now), category))
	}
	return articles
}

func matchField(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return m[1]
}

// cleanText 去掉 CDATA 标记；没有 CDATA 的字段是 XML 转义文本，需要先解码实体。
func cleanText(s string) string {
	if strings.Contains(s, "<![CDATA[") || strings.Contains(s, "]]>") {
		return strings.TrimSpace(cdataReplacer.Replace(s))
	}
	return strings.TrimSpace(html.UnescapeString(s))
}

// summarize 剥离 HTML 标签生成摘要，超过 200 个字符时截断并追加 "..."。
// 先解码实体再剥离标签，转义过的标签也会被去掉；残留的单个尖括号直接删除。
func summarize(description string) string {
	text := markupReplacer.Replace(tagRe.ReplaceAllString(html.UnescapeString(description), ""))
	if utf8.RuneCountInString(text) <= maxSummaryLen {
		return strings.TrimSpace(text)
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxSummaryLen])) + "..."
}

// normalizeDate 将 pubDate 规范为 UTC 日期 (YYYY-MM-DD)。
// 缺失时取 now；存在但无法解析时返回空串，表示日期未知。
func normalizeDate(pubDate string, now time.Time) string {
	if pubDate == "" {
		return now.UTC().Format(dateLayout)
	}
	t, ok := parseDate(pubDate)
	if !ok {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, bool) {
	// RFC 822 允许 "UT" 表示 UTC
	if strings.HasSuffix(s, " UT") {
		s = strings.TrimSuffix(s, " UT") + " +0000"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fixZone(t), true
		}
	}
	return time.Time{}, false
}

// fixZone 按缩写表重新确定时区，保持墙上时间不变。
func fixZone(t time.Time) time.Time {
	name, offset := t.Zone()
	hours, ok := zoneOffsets[name]
	if !ok || offset == hours*3600 {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.FixedZone(name, hours*3600))
}

func newArticle(title, summary, link, date, category string) Article {
	return Article{
		Title:    title,
		Summary:  summary,
		URL:      link,
		Date:     date,
		Category: category,
		Source:   SourcePlatform,
		External: true,
		Tags:     []string{SourcePlatform, category},
	}
}
