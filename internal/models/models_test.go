package models

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/search/si/1/plumber", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScrapeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ScrapeConfig
		wantErr bool
	}{
		{
			name:    "默认配置有效",
			config:  DefaultScrapeConfig(),
			wantErr: false,
		},
		{
			name: "页数过小",
			config: ScrapeConfig{
				MaxPages:   0,
				DelayMin:   1,
				DelayMax:   3,
				MaxRetries: 3,
				Timeout:    15,
			},
			wantErr: true,
		},
		{
			name: "页数过大",
			config: ScrapeConfig{
				MaxPages:   101,
				DelayMin:   1,
				DelayMax:   3,
				MaxRetries: 3,
				Timeout:    15,
			},
			wantErr: true,
		},
		{
			name: "延迟区间颠倒",
			config: ScrapeConfig{
				MaxPages:   5,
				DelayMin:   3,
				DelayMax:   1,
				MaxRetries: 3,
				Timeout:    15,
			},
			wantErr: true,
		},
		{
			name: "零延迟区间有效",
			config: ScrapeConfig{
				MaxPages:   5,
				DelayMin:   0,
				DelayMax:   0,
				MaxRetries: 3,
				Timeout:    15,
			},
			wantErr: false,
		},
		{
			name: "尝试次数过大",
			config: ScrapeConfig{
				MaxPages:   5,
				DelayMin:   1,
				DelayMax:   3,
				MaxRetries: 11,
				Timeout:    15,
			},
			wantErr: true,
		},
		{
			name: "并发数为负",
			config: ScrapeConfig{
				MaxPages:   5,
				DelayMin:   1,
				DelayMax:   3,
				MaxRetries: 3,
				Timeout:    15,
				Workers:    -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewScrapeTask(t *testing.T) {
	task, err := NewScrapeTask("plumber", "Montreal QC", DefaultScrapeConfig())
	if err != nil {
		t.Fatalf("NewScrapeTask() error = %v", err)
	}

	if task.ID == "" {
		t.Error("任务ID不应为空")
	}

	if task.Query != "plumber" {
		t.Errorf("Query = %v, want %v", task.Query, "plumber")
	}

	if task.Location != "Montreal QC" {
		t.Errorf("Location = %v, want %v", task.Location, "Montreal QC")
	}

	if task.Status != TaskStatusPending {
		t.Errorf("Status = %v, want %v", task.Status, TaskStatusPending)
	}
}

func TestNewScrapeTask_EmptyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"空字符串", ""},
		{"纯空白", "   "},
		{"制表符", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 空关键词必须在任何网络请求之前拒绝
			if _, err := NewScrapeTask(tt.query, "", DefaultScrapeConfig()); err == nil {
				t.Error("空关键词应返回错误")
			}
		})
	}
}

func TestNewScrapeTask_TrimsInput(t *testing.T) {
	task, err := NewScrapeTask("  plumber  ", "  Montreal  ", DefaultScrapeConfig())
	if err != nil {
		t.Fatalf("NewScrapeTask() error = %v", err)
	}

	if task.Query != "plumber" {
		t.Errorf("Query未去除空白: %q", task.Query)
	}
	if task.Location != "Montreal" {
		t.Errorf("Location未去除空白: %q", task.Location)
	}
}

func TestScrapeTask_JSON(t *testing.T) {
	task, err := NewScrapeTask("electrician", "Quebec", DefaultScrapeConfig())
	if err != nil {
		t.Fatalf("NewScrapeTask() error = %v", err)
	}

	jsonData, err := task.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded ScrapeTask
	if err := decoded.FromJSON(jsonData); err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if decoded.ID != task.ID {
		t.Errorf("解码后的ID不匹配: got %v, want %v", decoded.ID, task.ID)
	}

	if decoded.Query != task.Query {
		t.Errorf("解码后的Query不匹配: got %v, want %v", decoded.Query, task.Query)
	}
}

func TestScrapeStats_Count(t *testing.T) {
	records := []BusinessRecord{
		{Name: "A Plumbing", Phone: "(514) 555-0001", Website: "https://a-plumbing.ca", Email: "info@a-plumbing.ca"},
		{Name: "B Plumbing", Phone: "(514) 555-0002"},
		{Name: "C Plumbing", Website: "https://c-plumbing.ca"},
		{Name: "D Plumbing"},
	}

	var stats ScrapeStats
	stats.Count(records)

	if stats.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d, want 4", stats.TotalRecords)
	}
	if stats.WithPhone != 2 {
		t.Errorf("WithPhone = %d, want 2", stats.WithPhone)
	}
	if stats.WithWebsite != 2 {
		t.Errorf("WithWebsite = %d, want 2", stats.WithWebsite)
	}
	if stats.WithEmail != 1 {
		t.Errorf("WithEmail = %d, want 1", stats.WithEmail)
	}
}

func TestScrapeStats_CountResets(t *testing.T) {
	stats := ScrapeStats{TotalRecords: 99, WithPhone: 99, WithWebsite: 99, WithEmail: 99}
	stats.Count(nil)

	if stats.TotalRecords != 0 || stats.WithPhone != 0 || stats.WithWebsite != 0 || stats.WithEmail != 0 {
		t.Errorf("Count(nil)应重置字段统计: %+v", stats)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name       string
		kind       FetchErrorKind
		statusCode int
		want       bool
	}{
		{"网络错误可重试", FetchErrNetwork, 0, true},
		{"超时可重试", FetchErrTimeout, 0, true},
		{"500可重试", FetchErrHTTP, 500, true},
		{"503可重试", FetchErrHTTP, 503, true},
		{"404不重试", FetchErrHTTP, 404, false},
		{"403不重试", FetchErrHTTP, 403, false},
		{"429不重试", FetchErrHTTP, 429, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.kind, tt.statusCode); got != tt.want {
				t.Errorf("Retryable(%v, %d) = %v, want %v", tt.kind, tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	httpErr := &FetchError{URL: "https://example.com", Kind: FetchErrHTTP, StatusCode: 503, Attempts: 3}
	if !strings.Contains(httpErr.Error(), "503") {
		t.Errorf("http_error消息应包含状态码: %s", httpErr.Error())
	}

	cause := errors.New("connection refused")
	netErr := &FetchError{URL: "https://example.com", Kind: FetchErrNetwork, Attempts: 3, Cause: cause}
	if !strings.Contains(netErr.Error(), "connection refused") {
		t.Errorf("network_error消息应包含底层错误: %s", netErr.Error())
	}

	if !errors.Is(netErr, cause) {
		t.Error("Unwrap应暴露底层错误")
	}
}

func TestBusinessRecord(t *testing.T) {
	record := BusinessRecord{Name: "A Plumbing", Website: "https://a-plumbing.ca"}

	if !record.IsValid() {
		t.Error("含名称的记录应有效")
	}
	if !record.HasWebsite() {
		t.Error("HasWebsite() = false, want true")
	}
	if record.HasEmail() {
		t.Error("HasEmail() = true, want false")
	}

	empty := BusinessRecord{}
	if empty.IsValid() {
		t.Error("无名称的记录应无效")
	}
}

func TestCliHeaders_Parse(t *testing.T) {
	tests := []struct {
		name    string
		headers CliHeaders
		wantErr bool
	}{
		{"有效头部", CliHeaders{"Accept-Language: fr-CA"}, false},
		{"多个头部", CliHeaders{"Accept: text/html", "Referer: https://example.com"}, false},
		{"值含冒号", CliHeaders{"Referer: https://example.com:8080/path"}, false},
		{"缺少冒号", CliHeaders{"InvalidHeader"}, true},
		{"名称为空", CliHeaders{": value"}, true},
		{"空列表", CliHeaders{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.headers.Parse()
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCliHeaders_ParseValues(t *testing.T) {
	headers, err := CliHeaders{"Accept-Language:  fr-CA  "}.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := headers.Get("Accept-Language"); got != "fr-CA" {
		t.Errorf("值未去除空白: got %q, want %q", got, "fr-CA")
	}
}
