package models

import (
	"encoding/json"
	"time"
)

// ScrapeReport 抓取报告
type ScrapeReport struct {
	// 任务信息
	TaskID   string `json:"task_id"`
	Query    string `json:"query"`
	Location string `json:"location,omitempty"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats ScrapeStats `json:"stats"`

	// 结果集 (按页序保持插入顺序)
	Records []BusinessRecord `json:"records"`

	// 跳过的页面
	FailedPages []FailedPageInfo `json:"failed_pages,omitempty"`

	// 输出路径
	CSVPath    string `json:"csv_path"`    // CSV导出文件
	ReportPath string `json:"report_path"` // JSON报告文件

	// 配置快照
	Config ScrapeConfig `json:"config"`
}

// FailedPageInfo 抓取失败页面信息
type FailedPageInfo struct {
	Page      int    `json:"page"`
	URL       string `json:"url"`
	ErrorType string `json:"error_type"` // network_error, http_error, timeout
	ErrorMsg  string `json:"error_msg"`
	Attempts  int    `json:"attempts"`
}

// ToJSON 序列化为JSON
func (r *ScrapeReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *ScrapeReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
