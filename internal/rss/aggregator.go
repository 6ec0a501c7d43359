package rss

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iabetor/feedrelay/internal/logger"
)

// FeedFetcher 抓取单个订阅源。实现需自行吞掉抓取错误。
type FeedFetcher interface {
	Fetch(ctx context.Context, src Source) []Article
}

// Aggregator 并发抓取所有订阅源并按日期合并。
type Aggregator struct {
	sources SourceTable
	fetcher FeedFetcher
}

// NewAggregator 创建聚合器。
func NewAggregator(sources SourceTable, fetcher FeedFetcher) *Aggregator {
	return &Aggregator{sources: sources, fetcher: fetcher}
}

// Sources 返回聚合器使用的订阅源表。
func (a *Aggregator) Sources() SourceTable { return a.sources }

// Collect 并发抓取全部订阅源，等待全部完成后合并并按日期倒序排列。
// 抓取一旦开始不随 ctx 取消而中断。只有出现意外 panic 时才返回错误。
func (a *Aggregator) Collect(ctx context.Context) (articles []Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			articles, err = nil, fmt.Errorf("合并订阅源结果失败: %v", r)
		}
	}()

	ctx = context.WithoutCancel(ctx)
	sources := a.sources.Sources()

	// 每个 goroutine 只写自己的槽位，无需加锁。
	results := make([][]Article, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("抓取 %s 订阅源时发生 panic: %v", src.Key, r)
				}
			}()
			results[i] = a.fetcher.Fetch(ctx, src)
		}(i, src)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	articles = make([]Article, 0, total)
	for _, r := range results {
		articles = append(articles, r...)
	}
	SortByDate(articles)

	logger.Infof("[rss] 共获取 %d 篇文章 (%d 个订阅源)", len(articles), len(sources))
	return articles, nil
}

// SortByDate 按日期倒序稳定排序，日期未知的文章排在最后。
func SortByDate(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return compareDates(articles[i].Date, articles[j].Date) < 0
	})
}

// compareDates 返回负数表示 a 应排在 b 之前。
// YYYY-MM-DD 的字典序与日历顺序一致。
func compareDates(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	default:
		return strings.Compare(b, a)
	}
}
