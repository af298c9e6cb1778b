package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Scrape  models.ScrapeConfig `mapstructure:"scrape"`
	Search  SearchConfig        `mapstructure:"search"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Output  OutputConfig        `mapstructure:"output"`
}

// SearchConfig 搜索端点配置
type SearchConfig struct {
	// BaseURL 搜索接口基础URL
	BaseURL string `mapstructure:"base_url"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir     string `mapstructure:"base_dir"`
	WriteReport bool   `mapstructure:"write_report"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bizfindcrack"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 抓取配置默认值
	v.SetDefault("scrape.max_pages", 5)
	v.SetDefault("scrape.delay_min", 1.0)
	v.SetDefault("scrape.delay_max", 3.0)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.timeout", 15)
	v.SetDefault("scrape.stop_on_empty", false)
	v.SetDefault("scrape.enrich", true)
	v.SetDefault("scrape.workers", 1)
	v.SetDefault("scrape.host_rps", 0.5)

	// 搜索端点默认值
	v.SetDefault("search.base_url", "https://www.pagesjaunes.ca")

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.write_report", true)
}

// GetScrapeConfig 从配置中提取抓取配置
func (c *Config) GetScrapeConfig() models.ScrapeConfig {
	return c.Scrape
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	maxPages int,
	delayMin float64,
	delayMax float64,
	stopOnEmpty bool,
	enrich bool,
	workers int,
) {
	if maxPages > 0 {
		c.Scrape.MaxPages = maxPages
	}
	if delayMin >= 0 {
		c.Scrape.DelayMin = delayMin
	}
	if delayMax > 0 {
		c.Scrape.DelayMax = delayMax
	}
	c.Scrape.StopOnEmpty = stopOnEmpty
	c.Scrape.Enrich = enrich
	if workers >= 0 {
		c.Scrape.Workers = workers
	}
}
