// Package rss 抓取固定的一组 RSS 订阅源，提取文章记录并按日期合并排序。
package rss

const (
	// SourcePlatform 标识文章来源平台，同时作为第一个标签。
	SourcePlatform = "substack"

	// DefaultUserAgent 抓取订阅源时使用的 User-Agent。
	DefaultUserAgent = "Mozilla/5.0 (compatible; RSSBot/1.0)"

	maxItemsPerFeed = 10
	maxSummaryLen   = 200
	dateLayout      = "2006-01-02"
)

// Source 单个订阅源配置。
type Source struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Article 从订阅源中提取的文章记录。Date 为空表示日期未知。
type Article struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	URL      string   `json:"url"`
	Date     string   `json:"date,omitempty"`
	Category string   `json:"category"`
	Source   string   `json:"source"`
	External bool     `json:"external"`
	Tags     []string `json:"tags"`
}

// SourceTable 启动时构建的只读订阅源表，保留配置中的顺序。
type SourceTable struct {
	sources []Source
}

// NewSourceTable 复制传入的订阅源列表，之后对原切片的修改不会影响该表。
func NewSourceTable(sources []Source) SourceTable {
	cp := make([]Source, len(sources))
	copy(cp, sources)
	return SourceTable{sources: cp}
}

// Sources 返回订阅源的副本。
func (t SourceTable) Sources() []Source {
	cp := make([]Source, len(t.sources))
	copy(cp, t.sources)
	return cp
}

// Len 返回订阅源数量。
func (t SourceTable) Len() int { return len(t.sources) }
