package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
)

// Paginator 翻页聚合器
// 驱动Fetcher+ListingParser扫描指定页区间,按页序聚合记录
type Paginator struct {
	fetcher *Fetcher
	parser  *ListingParser

	// baseURL 搜索端点基础URL (如 https://www.pagesjaunes.ca)
	baseURL string

	// stopOnEmpty 空页时提前结束翻页
	// 默认关闭: 目标站点的空页语义不可靠,提前截断可能丢失结果
	stopOnEmpty bool

	// pagesFetched 本次Collect成功抓取的页数 (含解析为空的页)
	pagesFetched int
}

// NewPaginator 创建翻页聚合器
func NewPaginator(fetcher *Fetcher, parser *ListingParser, baseURL string, stopOnEmpty bool) *Paginator {
	return &Paginator{
		fetcher:     fetcher,
		parser:      parser,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		stopOnEmpty: stopOnEmpty,
	}
}

// Collect 扫描1..pageCount页并聚合商家记录
//
// 失败策略:
//   - 首页抓取失败 → 致命错误 (完全无法到达搜索端点)
//   - 其余页失败 → 记录并跳过,继续后续页 (部分结果优于全部失败)
//   - ctx取消 → 返回已聚合的记录和ctx错误 (部分结果不丢弃)
//
// 聚合顺序为页序+页内顺序,不做去重
func (p *Paginator) Collect(ctx context.Context, query, location string, pageCount int) ([]models.BusinessRecord, []models.FailedPageInfo, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, fmt.Errorf("搜索关键词不能为空")
	}
	if pageCount < 1 {
		return nil, nil, fmt.Errorf("页数必须为正数: %d", pageCount)
	}

	records := make([]models.BusinessRecord, 0)
	failed := make([]models.FailedPageInfo, 0)
	p.pagesFetched = 0

	for page := 1; page <= pageCount; page++ {
		// 中断时保留已聚合的记录
		if err := ctx.Err(); err != nil {
			utils.Warnf("翻页中断于第%d页, 保留已聚合的 %d 条记录", page, len(records))
			return records, failed, err
		}

		searchURL := p.BuildSearchURL(query, location, page)
		utils.Infof("🔍 抓取第 %d/%d 页: %q", page, pageCount, query)

		result, err := p.fetcher.Fetch(ctx, searchURL)
		if err != nil {
			// ctx取消经由fetcher传出
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				utils.Warnf("翻页中断于第%d页, 保留已聚合的 %d 条记录", page, len(records))
				return records, failed, err
			}

			// 首页失败为致命错误: 完全无法到达搜索端点
			if page == 1 {
				return nil, failed, fmt.Errorf("无法到达搜索端点 (首页抓取失败): %w", err)
			}

			utils.Warnf("第%d页抓取失败,跳过: %v", page, err)
			failed = append(failed, failedPageInfo(page, searchURL, err))
			continue
		}

		pageRecords := p.parser.Parse(string(result.Body))
		p.pagesFetched++
		utils.Infof("第%d页解析出 %d 条记录", page, len(pageRecords))

		if len(pageRecords) == 0 && p.stopOnEmpty {
			utils.Info("遇到空页且stop-on-empty已启用,提前结束翻页")
			break
		}

		records = append(records, pageRecords...)
	}

	return records, failed, nil
}

// PagesFetched 返回最近一次Collect成功抓取的页数
func (p *Paginator) PagesFetched() int {
	return p.pagesFetched
}

// BuildSearchURL 构造指定页的搜索URL
// 格式: {base}/search/si/{page}/{query}[/{location}]
func (p *Paginator) BuildSearchURL(query, location string, page int) string {
	searchURL := fmt.Sprintf("%s/search/si/%d/%s", p.baseURL, page, url.PathEscape(query))
	if location != "" {
		searchURL += "/" + url.PathEscape(location)
	}
	return searchURL
}

// failedPageInfo 将抓取错误转换为报告条目
func failedPageInfo(page int, searchURL string, err error) models.FailedPageInfo {
	info := models.FailedPageInfo{
		Page:     page,
		URL:      searchURL,
		ErrorMsg: err.Error(),
	}

	var fetchErr *models.FetchError
	if errors.As(err, &fetchErr) {
		info.ErrorType = string(fetchErr.Kind)
		info.Attempts = fetchErr.Attempts
	}

	return info
}
