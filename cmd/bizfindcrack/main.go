package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/BizFindcrack/internal/core"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 抓取参数
	query       string
	location    string
	maxPages    int
	outputFile  string
	queryFile   string
	delayMin    float64
	delayMax    float64
	stopOnEmpty bool
	enrich      bool
	workers     int

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "bizfindcrack",
	Short: "商家联系信息采集工具",
	Long: `BizFindcrack - 商家目录联系信息采集工具 (Go版本)

这是一个针对商家目录站点的自动化联系信息采集工具,支持:
  • 按关键词+地点分页搜索商家
  • 提取商家名称、电话和官网
  • 访问商家官网提取邮箱地址
  • 伪装身份轮换和请求限速
  • 批量查询处理
  • CSV导出和JSON报告

使用示例:
  # 单条查询
  bizfindcrack -q "plumber" -l "Montreal QC" -p 3

  # 批量查询 (文件每行: 关键词[,地点])
  bizfindcrack -f queries.txt

  # 自定义HTTP头部
  bizfindcrack -q "electrician" -H "Accept-Language: fr-CA"

  # 验证配置文件
  bizfindcrack --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 信号处理: Ctrl+C取消ctx,已聚合的结果仍然导出
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 保存已采集的结果后退出...", sig)
			cancel()
		}()

		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager(configFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 如果没有提供任何参数,显示帮助信息
		if query == "" && queryFile == "" {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(query, queryFile, maxPages, delayMin, delayMax, workers); err != nil {
			return err
		}

		// 命令行参数覆盖配置文件
		appConfig.MergeCLIFlags(maxPages, delayMin, delayMax, stopOnEmpty, enrich, workers)

		// 批量处理模式
		if queryFile != "" {
			queries, err := utils.ReadQueriesFromFile(queryFile)
			if err != nil {
				return fmt.Errorf("读取查询文件失败: %w", err)
			}

			batchScraper := core.NewBatchScraper(appConfig, batchDelay, continueOnError, headerManager)
			if _, err := batchScraper.ScrapeBatch(ctx, queries); err != nil {
				return fmt.Errorf("批量抓取失败: %w", err)
			}

			utils.Info("✨ 批量抓取任务完成!")
			return nil
		}

		// 单条查询模式
		scraper, err := core.NewScraper(query, location, outputFile, appConfig, headerManager)
		if err != nil {
			return fmt.Errorf("创建抓取器失败: %w", err)
		}

		if err := scraper.Run(ctx); err != nil {
			return fmt.Errorf("抓取失败: %w", err)
		}

		scraper.PrintSummary()
		utils.Info("✨ 抓取任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("BizFindcrack %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 商家联系信息采集工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 抓取参数
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "搜索关键词 (必需,除非使用 --query-file)")
	rootCmd.Flags().StringVarP(&location, "location", "l", "", "地点过滤 (可选,如 'Montreal QC')")
	rootCmd.Flags().IntVarP(&maxPages, "pages", "p", 5, "抓取页数 (1-100)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "CSV输出文件名 (默认由关键词派生)")
	rootCmd.Flags().StringVarP(&queryFile, "query-file", "f", "", "包含查询列表的文件路径")
	rootCmd.Flags().Float64Var(&delayMin, "delay-min", 1, "请求间最小延迟(秒)")
	rootCmd.Flags().Float64Var(&delayMax, "delay-max", 3, "请求间最大延迟(秒)")
	rootCmd.Flags().BoolVar(&stopOnEmpty, "stop-on-empty", false, "遇到空页时提前结束翻页")
	rootCmd.Flags().BoolVar(&enrich, "enrich", true, "访问商家官网提取邮箱")
	rootCmd.Flags().IntVar(&workers, "workers", 1, "邮箱富化并发数 (1=串行, 0=自动)")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理查询间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
