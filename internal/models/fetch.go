package models

import (
	"fmt"
	"net/http"
)

// FetchErrorKind 抓取失败类别
type FetchErrorKind string

const (
	FetchErrNetwork FetchErrorKind = "network_error" // 连接/DNS失败
	FetchErrHTTP    FetchErrorKind = "http_error"    // 重试耗尽后的非成功状态码
	FetchErrTimeout FetchErrorKind = "timeout"       // 请求超时
)

// FetchRequest 单次抓取请求 (进程内传递,不持久化)
type FetchRequest struct {
	// URL 目标地址
	URL string

	// Headers 本次尝试使用的头部集合 (每次尝试重新选择)
	Headers http.Header

	// Attempt 当前尝试序号 (从1开始)
	Attempt int
}

// FetchResult 抓取成功的结果
type FetchResult struct {
	// URL 请求地址
	URL string

	// StatusCode HTTP状态码
	StatusCode int

	// Body 已解压的响应体
	Body []byte
}

// FetchError 抓取失败错误
// 所有尝试耗尽后由Fetcher返回,携带失败类别供上层决定处理策略
type FetchError struct {
	// URL 请求地址
	URL string

	// Kind 失败类别
	Kind FetchErrorKind

	// StatusCode 最后一次响应的状态码 (仅http_error时有意义)
	StatusCode int

	// Attempts 已执行的尝试次数
	Attempts int

	// Cause 底层错误
	Cause error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrHTTP:
		return fmt.Sprintf("抓取失败 [%s]: HTTP %d (尝试%d次)", e.URL, e.StatusCode, e.Attempts)
	case FetchErrTimeout:
		return fmt.Sprintf("抓取超时 [%s] (尝试%d次): %v", e.URL, e.Attempts, e.Cause)
	default:
		return fmt.Sprintf("抓取失败 [%s] (尝试%d次): %v", e.URL, e.Attempts, e.Cause)
	}
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Retryable 该类失败是否值得重试
// 网络错误、超时和服务端错误可重试;4xx为确定性失败,立即上报
func Retryable(kind FetchErrorKind, statusCode int) bool {
	if kind == FetchErrNetwork || kind == FetchErrTimeout {
		return true
	}
	return statusCode >= 500
}
