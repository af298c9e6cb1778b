package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/RecoveryAshes/BizFindcrack/internal/scrape"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
)

// Scraper 主抓取协调器
// 串联翻页聚合、邮箱富化和结果导出三个阶段
type Scraper struct {
	task       *models.ScrapeTask
	appConfig  *Config
	outputFile string

	// 抓取组件
	fetcher   *scrape.Fetcher
	paginator *scrape.Paginator
	enricher  *scrape.Enricher

	// 导出器
	reporter *utils.Reporter

	// 结果集
	records     []models.BusinessRecord
	failedPages []models.FailedPageInfo
}

// NewScraper 创建主抓取器
func NewScraper(query, location, outputFile string, appConfig *Config, headerProvider models.HeaderProvider) (*Scraper, error) {
	cfg := appConfig.GetScrapeConfig()

	task, err := models.NewScrapeTask(query, location, cfg)
	if err != nil {
		return nil, err
	}

	// 从搜索端点URL提取目录站域名,解析器用它区分站内链接和外部官网
	parsedBase, err := url.Parse(appConfig.Search.BaseURL)
	if err != nil || parsedBase.Host == "" {
		return nil, fmt.Errorf("无效的搜索端点URL: %s", appConfig.Search.BaseURL)
	}

	fetcher := scrape.NewFetcher(cfg, headerProvider)
	parser := scrape.NewListingParser(parsedBase.Host)
	extractor := scrape.NewEmailExtractor(fetcher)

	return &Scraper{
		task:       task,
		appConfig:  appConfig,
		outputFile: outputFile,
		fetcher:    fetcher,
		paginator:  scrape.NewPaginator(fetcher, parser, appConfig.Search.BaseURL, cfg.StopOnEmpty),
		enricher:   scrape.NewEnricher(extractor, cfg.Workers, cfg.HostRPS),
		reporter:   utils.NewReporter(appConfig.Output.BaseDir),
	}, nil
}

// Run 执行抓取任务
// 执行流程:
//  1. 翻页聚合商家记录
//  2. 邮箱富化 (可关闭)
//  3. 重算统计信息
//  4. 导出CSV + JSON报告
//
// ctx取消时已聚合的记录仍然导出,任务状态标记为partial
func (s *Scraper) Run(ctx context.Context) error {
	startTime := time.Now()
	s.task.StartedAt = &startTime
	s.task.Status = models.TaskStatusRunning

	utils.Infof("🚀 开始抓取任务 [%s]", s.task.ID)
	utils.Infof("搜索关键词: %s", s.task.Query)
	if s.task.Location != "" {
		utils.Infof("地点过滤: %s", s.task.Location)
	}
	utils.Infof("搜索端点: %s", s.appConfig.Search.BaseURL)
	utils.Infof("抓取页数: %d", s.task.Config.MaxPages)

	// 翻页聚合
	records, failedPages, err := s.paginator.Collect(ctx, s.task.Query, s.task.Location, s.task.Config.MaxPages)
	s.records = records
	s.failedPages = failedPages

	interrupted := false
	var interruptCause error
	if err != nil {
		if len(records) == 0 {
			// 首页不可达或纯输入错误,没有可保留的结果
			s.task.Status = models.TaskStatusFailed
			s.task.ErrorMessage = err.Error()
			return err
		}
		// 中断但有部分结果: 跳过富化,直接导出已有记录
		utils.Warnf("任务中断,导出已聚合的 %d 条记录: %v", len(records), err)
		interrupted = true
		interruptCause = err
	}

	// 邮箱富化
	if !interrupted && s.task.Config.Enrich {
		s.records = s.enricher.Enrich(ctx, s.records)
		if ctx.Err() != nil {
			// 富化阶段被取消: 翻页本身成功,中断原因来自ctx
			interrupted = true
			interruptCause = ctx.Err()
		}
	} else if !s.task.Config.Enrich {
		utils.Info("邮箱富化已关闭,跳过官网访问")
	}

	// 重算统计
	s.task.Stats.Count(s.records)
	s.task.Stats.PagesFailed = len(failedPages)
	s.task.Stats.PagesFetched = s.paginator.PagesFetched()
	if s.task.Config.Enrich {
		s.task.Stats.EnrichAttempts = s.task.Stats.WithWebsite
		s.task.Stats.EnrichFailed = s.task.Stats.WithWebsite - s.task.Stats.WithEmail
	}
	s.task.Stats.Duration = time.Since(startTime).Seconds()

	// 导出结果
	if exportErr := s.export(startTime); exportErr != nil {
		s.task.Status = models.TaskStatusFailed
		s.task.ErrorMessage = exportErr.Error()
		return exportErr
	}

	endTime := time.Now()
	s.task.CompletedAt = &endTime
	if interrupted {
		s.task.Status = models.TaskStatusPartial
		s.task.ErrorMessage = interruptCause.Error()
		utils.Warnf("⚠️ 任务中断,已导出部分结果 [%s]", s.task.ID)
		return nil
	}

	s.task.Status = models.TaskStatusCompleted
	utils.Infof("✅ 抓取任务完成 [%s]: %d 条记录, 耗时 %.2f秒",
		s.task.ID, s.task.Stats.TotalRecords, s.task.Stats.Duration)
	return nil
}

// export 导出CSV和JSON报告
func (s *Scraper) export(startTime time.Time) error {
	filename := s.outputFile
	if filename == "" {
		name := s.task.Query
		if s.task.Location != "" {
			name = name + " " + s.task.Location
		}
		filename = utils.SafeFilename(name)
	}

	csvPath, err := s.reporter.WriteCSV(filename, s.records)
	if err != nil {
		return fmt.Errorf("导出CSV失败: %w", err)
	}
	utils.Infof("📄 CSV已导出: %s (%d 条记录)", csvPath, len(s.records))

	if !s.appConfig.Output.WriteReport {
		return nil
	}

	report := &models.ScrapeReport{
		TaskID:      s.task.ID,
		Query:       s.task.Query,
		Location:    s.task.Location,
		StartTime:   startTime,
		EndTime:     time.Now(),
		Duration:    s.task.Stats.Duration,
		Stats:       s.task.Stats,
		Records:     s.records,
		FailedPages: s.failedPages,
		CSVPath:     csvPath,
		Config:      s.task.Config,
	}

	reportPath, err := s.reporter.WriteReport(report)
	if err != nil {
		// 报告失败不影响已导出的CSV
		utils.Warnf("生成JSON报告失败: %v", err)
		return nil
	}
	report.ReportPath = reportPath
	utils.Infof("📊 报告已生成: %s", reportPath)
	return nil
}

// GetStats 获取统计信息
func (s *Scraper) GetStats() models.ScrapeStats {
	return s.task.Stats
}

// GetRecords 获取聚合后的记录集
func (s *Scraper) GetRecords() []models.BusinessRecord {
	return s.records
}

// GetTask 获取任务信息
func (s *Scraper) GetTask() *models.ScrapeTask {
	return s.task
}

// PrintSummary 打印任务摘要
func (s *Scraper) PrintSummary() {
	stats := s.task.Stats

	fmt.Println()
	fmt.Println("📊 抓取结果摘要")
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("记录总数:   %d\n", stats.TotalRecords)
	fmt.Printf("含电话:     %d\n", stats.WithPhone)
	fmt.Printf("含官网:     %d\n", stats.WithWebsite)
	fmt.Printf("含邮箱:     %d\n", stats.WithEmail)
	fmt.Printf("成功页数:   %d\n", stats.PagesFetched)
	fmt.Printf("失败页数:   %d\n", stats.PagesFailed)
	fmt.Printf("总耗时:     %.2f秒\n", stats.Duration)
	fmt.Println(strings.Repeat("-", 40))
}
