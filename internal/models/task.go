package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusPartial   TaskStatus = "partial"   // 中断后保留部分结果
	TaskStatusFailed    TaskStatus = "failed"    // 失败
)

// ScrapeStats 抓取统计
type ScrapeStats struct {
	TotalRecords   int     `json:"total_records"`   // 记录总数
	WithPhone      int     `json:"with_phone"`      // 含电话的记录数
	WithWebsite    int     `json:"with_website"`    // 含官网的记录数
	WithEmail      int     `json:"with_email"`      // 含邮箱的记录数
	PagesFetched   int     `json:"pages_fetched"`   // 成功抓取的页数
	PagesFailed    int     `json:"pages_failed"`    // 抓取失败被跳过的页数
	EnrichAttempts int     `json:"enrich_attempts"` // 邮箱富化尝试次数
	EnrichFailed   int     `json:"enrich_failed"`   // 邮箱富化失败次数
	Duration       float64 `json:"duration"`        // 总耗时(秒)
}

// Count 根据记录列表重新计算字段统计
func (s *ScrapeStats) Count(records []BusinessRecord) {
	s.TotalRecords = len(records)
	s.WithPhone = 0
	s.WithWebsite = 0
	s.WithEmail = 0
	for i := range records {
		if records[i].Phone != "" {
			s.WithPhone++
		}
		if records[i].HasWebsite() {
			s.WithWebsite++
		}
		if records[i].HasEmail() {
			s.WithEmail++
		}
	}
}

// ScrapeConfig 抓取配置
type ScrapeConfig struct {
	MaxPages    int     `json:"max_pages" mapstructure:"max_pages"`         // 抓取页数 (默认:5)
	DelayMin    float64 `json:"delay_min" mapstructure:"delay_min"`         // 请求间最小延迟(秒) (默认:1)
	DelayMax    float64 `json:"delay_max" mapstructure:"delay_max"`         // 请求间最大延迟(秒) (默认:3)
	MaxRetries  int     `json:"max_retries" mapstructure:"max_retries"`     // 单个URL最大尝试次数 (默认:3)
	Timeout     int     `json:"timeout" mapstructure:"timeout"`             // 单次请求超时(秒) (默认:15)
	StopOnEmpty bool    `json:"stop_on_empty" mapstructure:"stop_on_empty"` // 空页时提前结束翻页 (默认:false)
	Enrich      bool    `json:"enrich" mapstructure:"enrich"`               // 是否执行邮箱富化 (默认:true)
	Workers     int     `json:"workers" mapstructure:"workers"`             // 富化并发数 (1=串行, 0=自动)
	HostRPS     float64 `json:"host_rps" mapstructure:"host_rps"`           // 并发富化时单域名请求速率上限
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if c.MaxPages < 1 || c.MaxPages > 100 {
		return fmt.Errorf("页数必须在1-100之间")
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return fmt.Errorf("延迟区间无效: [%.1f, %.1f]", c.DelayMin, c.DelayMax)
	}
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return fmt.Errorf("尝试次数必须在1-10之间")
	}
	if c.Timeout < 1 || c.Timeout > 120 {
		return fmt.Errorf("超时必须在1-120秒之间")
	}
	if c.Workers < 0 || c.Workers > 32 {
		return fmt.Errorf("并发数必须在0-32之间")
	}
	return nil
}

// DefaultScrapeConfig 默认抓取配置 (与原工具行为一致)
func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		MaxPages:   5,
		DelayMin:   1,
		DelayMax:   3,
		MaxRetries: 3,
		Timeout:    15,
		Enrich:     true,
		Workers:    1,
		HostRPS:    0.5,
	}
}

// ScrapeTask 一次完整的抓取任务
type ScrapeTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	Query       string     `json:"query"`                  // 搜索关键词
	Location    string     `json:"location,omitempty"`     // 地点过滤 (可选)
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config ScrapeConfig `json:"config"`

	// 执行状态
	Status TaskStatus `json:"status"`

	// 统计信息
	Stats ScrapeStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewScrapeTask 创建新任务
// 空query为致命输入错误,在任何网络请求之前拒绝
func NewScrapeTask(query, location string, config ScrapeConfig) (*ScrapeTask, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("搜索关键词不能为空")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ScrapeTask{
		ID:        generateID(),
		Query:     strings.TrimSpace(query),
		Location:  strings.TrimSpace(location),
		CreatedAt: time.Now(),
		Config:    config,
		Status:    TaskStatusPending,
		Stats:     ScrapeStats{},
	}, nil
}

// ToJSON 序列化为JSON
func (t *ScrapeTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *ScrapeTask) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}
