package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
)

// BatchScraper 批量抓取器
// 按顺序处理查询列表,查询之间插入固定延迟
type BatchScraper struct {
	appConfig      *Config
	batchDelay     time.Duration
	continueOnErr  bool
	headerProvider models.HeaderProvider
}

// BatchResult 单条查询的抓取结果
type BatchResult struct {
	Query       string
	Location    string
	Success     bool
	Error       error
	Stats       models.ScrapeStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量抓取摘要
type BatchSummary struct {
	TotalQueries  int
	SuccessCount  int
	FailCount     int
	TotalRecords  int
	TotalEmails   int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchScraper 创建批量抓取器
func NewBatchScraper(appConfig *Config, batchDelay int, continueOnErr bool, headerProvider models.HeaderProvider) *BatchScraper {
	return &BatchScraper{
		appConfig:      appConfig,
		batchDelay:     time.Duration(batchDelay) * time.Second,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
	}
}

// ScrapeBatch 批量处理查询列表
// ctx取消时停止剩余查询,已完成的结果保留在摘要中
func (bs *BatchScraper) ScrapeBatch(ctx context.Context, queries []models.QuerySpec) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量抓取: %d 条查询", len(queries))

	summary := &BatchSummary{
		TotalQueries: len(queries),
		Results:      make([]BatchResult, 0, len(queries)),
	}

	startTime := time.Now()

	for i, q := range queries {
		if ctx.Err() != nil {
			utils.Warnf("批量抓取中断 (%d/%d)", i, len(queries))
			break
		}

		utils.Infof("\n==================== [%d/%d] ====================", i+1, len(queries))
		utils.Infof("查询: %s", q.Query)

		result := bs.scrapeSingle(ctx, q)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalRecords += result.Stats.TotalRecords
			summary.TotalEmails += result.Stats.WithEmail
		} else {
			summary.FailCount++
			utils.Errorf("❌ 抓取失败: %v", result.Error)

			if !bs.continueOnErr {
				utils.Warn("批量抓取中止 (--continue-on-error=false)")
				break
			}
		}

		// 查询间延迟(最后一条不需要)
		if i < len(queries)-1 && bs.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一条查询...", bs.batchDelay.Seconds())
			select {
			case <-ctx.Done():
			case <-time.After(bs.batchDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()

	bs.printSummary(summary)

	return summary, nil
}

// scrapeSingle 处理单条查询
func (bs *BatchScraper) scrapeSingle(ctx context.Context, q models.QuerySpec) BatchResult {
	result := BatchResult{
		Query:       q.Query,
		Location:    q.Location,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	// 批量模式输出文件名由关键词派生,不支持-o覆盖
	scraper, err := NewScraper(q.Query, q.Location, "", bs.appConfig, bs.headerProvider)
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("创建抓取器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	if err := scraper.Run(ctx); err != nil {
		result.Success = false
		result.Error = fmt.Errorf("抓取失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	result.Success = true
	result.Stats = scraper.GetStats()
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// printSummary 打印批量抓取摘要
func (bs *BatchScraper) printSummary(summary *BatchSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量抓取摘要")
	utils.Info("==================================================")
	utils.Infof("总查询数: %d", summary.TotalQueries)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 总记录数: %d", summary.TotalRecords)
	utils.Infof("📧 含邮箱记录数: %d", summary.TotalEmails)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("\n失败的查询:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.Query, result.Error)
			}
		}
	}
}
