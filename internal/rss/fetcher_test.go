package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Blog</title>
    <link>https://example.com</link>
    <description>A test RSS feed</description>
    <item>
      <title>第一篇文章</title>
      <link>https://example.com/post/1</link>
      <description>&lt;p&gt;这是第一篇文章的内容，包含 &lt;b&gt;HTML 标签&lt;/b&gt;。&lt;/p&gt;</description>
      <pubDate>Thu, 19 Feb 2026 08:00:00 +0800</pubDate>
    </item>
    <item>
      <title>AI 技术前沿</title>
      <link>https://example.com/post/2</link>
      <description>人工智能最新进展</description>
      <pubDate>Wed, 18 Feb 2026 07:00:00 +0800</pubDate>
    </item>
    <item>
      <title>第三篇普通文章</title>
      <link>https://example.com/post/3</link>
      <description>普通内容</description>
      <pubDate>Tue, 17 Feb 2026 06:00:00 +0800</pubDate>
    </item>
  </channel>
</rss>`

func setupTestServer(content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, content)
	}))
}

func TestFetch(t *testing.T) {
	srv := setupTestServer(testRSSFeed)
	defer srv.Close()

	fetcher := NewFetcher(newTestPatternExtractor(), FetcherOptions{})
	items := fetcher.Fetch(context.Background(), Source{Key: "tech", URL: srv.URL, Category: "tech"})
	if len(items) != 3 {
		t.Fatalf("期望 3 条，得到 %d 条", len(items))
	}
	if items[0].Summary != "这是第一篇文章的内容，包含 HTML 标签。" {
		t.Errorf("HTML 应被剥离，实际: %s", items[0].Summary)
	}
	if items[0].Date != "2026-02-19" {
		t.Errorf("日期不匹配: %s", items[0].Date)
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.Method != http.MethodGet {
			t.Errorf("期望 GET 请求，得到 %s", r.Method)
		}
		fmt.Fprint(w, testRSSFeed)
	}))
	defer srv.Close()

	NewFetcher(newTestPatternExtractor(), FetcherOptions{}).Fetch(context.Background(), Source{URL: srv.URL, Category: "tech"})
	if gotUA != "Mozilla/5.0 (compatible; RSSBot/1.0)" {
		t.Errorf("User-Agent 不匹配: %q", gotUA)
	}
}

func TestFetchBadStatus(t *testing.T) {
	for _, status := range []int{http.StatusServiceUnavailable, http.StatusNotFound, http.StatusMovedPermanently} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status == http.StatusMovedPermanently {
				// 没有 Location 头的重定向不会被 http.Client 跟随
				w.WriteHeader(status)
				return
			}
			http.Error(w, testRSSFeed, status)
		}))

		items := NewFetcher(newTestPatternExtractor(), FetcherOptions{}).Fetch(context.Background(), Source{URL: srv.URL, Category: "tech"})
		srv.Close()
		if len(items) != 0 {
			t.Errorf("HTTP %d 应返回空结果，得到 %d 条", status, len(items))
		}
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := setupTestServer(testRSSFeed)
	url := srv.URL
	srv.Close()

	items := NewFetcher(newTestPatternExtractor(), FetcherOptions{}).Fetch(context.Background(), Source{URL: url, Category: "tech"})
	if items == nil || len(items) != 0 {
		t.Fatalf("连接失败应返回空切片，得到 %v", items)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	items := NewFetcher(newTestPatternExtractor(), FetcherOptions{}).Fetch(context.Background(), Source{URL: "://bad", Category: "tech"})
	if len(items) != 0 {
		t.Fatalf("非法 URL 应返回空结果，得到 %d 条", len(items))
	}
}

func TestFetchTruncatesOversizedBody(t *testing.T) {
	item := "<item><title>T</title><link>https://example.com/t</link></item>"
	srv := setupTestServer(item + strings.Repeat(" ", 4096) + item)
	defer srv.Close()

	fetcher := NewFetcher(newTestPatternExtractor(), FetcherOptions{MaxBodyBytes: int64(len(item) + 10)})
	items := fetcher.Fetch(context.Background(), Source{URL: srv.URL, Category: "tech"})
	if len(items) != 1 {
		t.Fatalf("截断后应只剩 1 条完整条目，得到 %d 条", len(items))
	}
}

func TestFetchWithFeedParser(t *testing.T) {
	srv := setupTestServer(testRSSFeed)
	defer srv.Close()

	items := NewFetcher(newTestFeedParserExtractor(), FetcherOptions{}).Fetch(context.Background(), Source{URL: srv.URL, Category: "tech"})
	if len(items) != 3 {
		t.Fatalf("期望 3 条，得到 %d 条", len(items))
	}
	if items[1].Title != "AI 技术前沿" {
		t.Errorf("标题不匹配: %s", items[1].Title)
	}
}
