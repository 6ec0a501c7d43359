package rss

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestFeedParserExtractor() *FeedParserExtractor {
	now := func() time.Time { return fixedNow }
	return &FeedParserExtractor{
		fallback: &PatternExtractor{now: now},
		now:      now,
	}
}

const testAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Blog</title>
  <entry>
    <title>Atom 文章</title>
    <link href="https://example.com/atom/1"/>
    <summary>Atom 格式的摘要</summary>
    <updated>2026-02-19T09:00:00+08:00</updated>
  </entry>
</feed>`

func TestFeedParserExtract_RSS(t *testing.T) {
	articles := newTestFeedParserExtractor().Extract(substackFeed, "tech")
	if len(articles) != 2 {
		t.Fatalf("期望 2 条，得到 %d 条", len(articles))
	}
	if articles[0].Title != "Designing for trust" || articles[0].Summary != "Hello world" {
		t.Errorf("第一条不匹配: %+v", articles[0])
	}
	if articles[0].Date != "2026-02-19" || articles[1].Date != "2026-02-18" {
		t.Errorf("日期不匹配: %q, %q", articles[0].Date, articles[1].Date)
	}
	if articles[1].Source != SourcePlatform || !articles[1].External {
		t.Errorf("记录字段不正确: %+v", articles[1])
	}
}

func TestFeedParserExtract_Atom(t *testing.T) {
	articles := newTestFeedParserExtractor().Extract(testAtomFeed, "product")
	if len(articles) != 1 {
		t.Fatalf("期望 1 条，得到 %d 条", len(articles))
	}
	a := articles[0]
	if a.URL != "https://example.com/atom/1" {
		t.Errorf("链接不匹配: %q", a.URL)
	}
	if a.Summary != "Atom 格式的摘要" {
		t.Errorf("摘要不匹配: %q", a.Summary)
	}
	if a.Date != "2026-02-19" {
		t.Errorf("日期不匹配: %q", a.Date)
	}
}

func TestFeedParserExtract_ContentWithoutSummary(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>只有正文</title>
    <link href="https://example.com/atom/2"/>
    <content type="html">&lt;p&gt;正文内容 &amp;lt;b&amp;gt;加粗&amp;lt;/b&amp;gt;&lt;/p&gt;</content>
    <updated>2026-02-20T09:00:00Z</updated>
  </entry>
</feed>`
	articles := newTestFeedParserExtractor().Extract(feed, "product")
	if len(articles) != 1 {
		t.Fatalf("期望 1 条，得到 %d 条", len(articles))
	}
	got := articles[0].Summary
	if got == "" {
		t.Fatal("摘要应取自 content")
	}
	if strings.ContainsAny(got, "<>") {
		t.Errorf("摘要仍包含标签字符: %q", got)
	}
	if !strings.HasPrefix(got, "正文内容") {
		t.Errorf("摘要不匹配: %q", got)
	}
}

func TestFeedParserExtract_FallsBackOnMalformedFeed(t *testing.T) {
	// 没有 <rss> 根元素，gofeed 无法识别类型
	feed := `<item><title>Loose item</title><link>https://example.com/loose</link></item>`

	articles := newTestFeedParserExtractor().Extract(feed, "tech")
	if len(articles) != 1 {
		t.Fatalf("期望退回模式匹配得到 1 条，得到 %d 条", len(articles))
	}
	if articles[0].Title != "Loose item" {
		t.Errorf("标题不匹配: %q", articles[0].Title)
	}
}

func TestFeedParserExtract_Garbage(t *testing.T) {
	if got := newTestFeedParserExtractor().Extract("}{ not a feed", "tech"); len(got) != 0 {
		t.Fatalf("期望空结果，得到 %d 条", len(got))
	}
}

func TestFeedParserExtract_DatesAndCap(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	b.WriteString(`<item><title>bad date</title><link>https://example.com/bad</link><pubDate>sometime last week</pubDate></item>`)
	b.WriteString(`<item><title>no date</title><link>https://example.com/none</link></item>`)
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, `<item><title>Post %d</title><link>https://example.com/%d</link><pubDate>Tue, 10 Mar 2026 10:00:00 +0000</pubDate></item>`, i, i)
	}
	b.WriteString(`</channel></rss>`)

	articles := newTestFeedParserExtractor().Extract(b.String(), "tech")
	if len(articles) != 10 {
		t.Fatalf("期望 10 条，得到 %d 条", len(articles))
	}
	if articles[0].Date != "" {
		t.Errorf("无法解析的日期应视为未知，得到 %q", articles[0].Date)
	}
	if articles[1].Date != "2026-10-17" {
		t.Errorf("缺失日期应取当前日期，得到 %q", articles[1].Date)
	}
	if articles[2].Date != "2026-03-10" {
		t.Errorf("日期不匹配: %q", articles[2].Date)
	}
}
