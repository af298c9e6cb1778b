package scrape

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/BizFindcrack/internal/config"
	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/publicsuffix"
)

// Fetcher 带反检测措施的HTTP抓取器
// 职责:
//   - 每次尝试前从身份池随机选择一套身份头部
//   - 请求之间插入随机延迟,避免请求爆发
//   - 网络错误/超时/服务端错误时有界重试,4xx确定性失败立即上报
//   - 透明解压gzip/deflate/br响应体
//   - 通过共享cookie jar维持会话
type Fetcher struct {
	collector *colly.Collector

	// headerProvider 用户头部覆盖 (配置文件+命令行)
	headerProvider models.HeaderProvider

	// 延迟与重试参数
	delayMin   float64 // 请求间最小延迟(秒)
	delayMax   float64 // 请求间最大延迟(秒)
	maxRetries int

	// BackoffMin/BackoffMax 重试退避区间(秒)
	BackoffMin float64
	BackoffMax float64

	// issued 标记是否已发出过请求 (首个请求不延迟)
	issued bool
	mu     sync.Mutex
}

// NewFetcher 创建抓取器
func NewFetcher(cfg models.ScrapeConfig, headerProvider models.HeaderProvider) *Fetcher {
	c := colly.NewCollector(
		// 重试需要重复访问同一URL
		colly.AllowURLRevisit(),
	)

	c.SetRequestTimeout(time.Duration(cfg.Timeout) * time.Second)

	// 跳过证书验证: 小商家官网常见自签名或过期证书,宁可降级也不丢失记录
	c.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	})

	// 共享cookie jar,与浏览器会话行为一致
	if jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err == nil {
		c.SetCookieJar(jar)
	} else {
		utils.Warnf("创建cookie jar失败, 继续无会话模式: %v", err)
	}

	return &Fetcher{
		collector:      c,
		headerProvider: headerProvider,
		delayMin:       cfg.DelayMin,
		delayMax:       cfg.DelayMax,
		maxRetries:     cfg.MaxRetries,
		BackoffMin:     2,
		BackoffMax:     5,
	}
}

// Fetch 抓取单个URL,所有尝试耗尽后返回*models.FetchError
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*models.FetchResult, error) {
	if err := models.ValidateURL(targetURL); err != nil {
		return nil, &models.FetchError{
			URL:      targetURL,
			Kind:     models.FetchErrNetwork,
			Attempts: 0,
			Cause:    err,
		}
	}

	var lastErr *models.FetchError

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		// 请求间随机延迟 (本抓取器发出的首个请求除外)
		if err := f.politeDelay(ctx); err != nil {
			return nil, err
		}

		result, fetchErr := f.attempt(targetURL, attempt)
		if fetchErr == nil {
			return result, nil
		}

		fetchErr.Attempts = attempt
		lastErr = fetchErr

		// 4xx等确定性失败不重试,立即上报
		if !models.Retryable(fetchErr.Kind, fetchErr.StatusCode) {
			utils.Debugf("确定性失败,不重试 [%s]: %v", targetURL, fetchErr)
			return nil, fetchErr
		}

		if attempt < f.maxRetries {
			utils.Warnf("请求失败 (尝试 %d/%d) [%s]: %v", attempt, f.maxRetries, targetURL, fetchErr.Cause)
			if err := f.backoff(ctx); err != nil {
				return nil, err
			}
		}
	}

	utils.Errorf("抓取失败,已尝试%d次 [%s]", f.maxRetries, targetURL)
	return nil, lastErr
}

// FetchString Fetch的便捷封装,返回响应体字符串
func (f *Fetcher) FetchString(ctx context.Context, targetURL string) (string, error) {
	result, err := f.Fetch(ctx, targetURL)
	if err != nil {
		return "", err
	}
	return string(result.Body), nil
}

// attempt 执行单次抓取尝试
// 每次尝试克隆collector并重新注册回调,随机身份在OnRequest中应用
func (f *Fetcher) attempt(targetURL string, attemptNum int) (*models.FetchResult, *models.FetchError) {
	c := f.collector.Clone()

	identity := config.RandomIdentity()

	var (
		result   *models.FetchResult
		fetchErr *models.FetchError
	)

	c.OnRequest(func(r *colly.Request) {
		// 1. 应用随机身份头部
		base := config.BaseHeaders(identity)
		for name, values := range base {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}

		// 2. 叠加用户头部覆盖
		if f.headerProvider != nil {
			overrides, err := f.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部覆盖失败: %v", err)
			} else {
				for name, values := range overrides {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}

		utils.Debugf("访问 [%s] (尝试=%d, 身份=%s)", targetURL, attemptNum, identity.Name)
	})

	c.OnResponse(func(r *colly.Response) {
		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", targetURL, encoding, err)
				// 解压失败,仍然尝试使用原始body
			} else {
				body = decompressed
			}
		}

		result = &models.FetchResult{
			URL:        targetURL,
			StatusCode: r.StatusCode,
			Body:       body,
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= 400 {
			fetchErr = &models.FetchError{
				URL:        targetURL,
				Kind:       models.FetchErrHTTP,
				StatusCode: r.StatusCode,
				Cause:      err,
			}
			return
		}

		fetchErr = &models.FetchError{
			URL:   targetURL,
			Kind:  classifyNetworkError(err),
			Cause: err,
		}
	})

	if err := c.Visit(targetURL); err != nil && fetchErr == nil && result == nil {
		// 回调未捕获的错误 (如URL解析失败)
		fetchErr = &models.FetchError{
			URL:   targetURL,
			Kind:  classifyNetworkError(err),
			Cause: err,
		}
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	if result == nil {
		return nil, &models.FetchError{
			URL:   targetURL,
			Kind:  models.FetchErrNetwork,
			Cause: errors.New("未收到响应"),
		}
	}
	return result, nil
}

// politeDelay 请求间随机延迟
// 首个请求直接放行,后续请求等待 [delayMin, delayMax] 区间内的随机时长
func (f *Fetcher) politeDelay(ctx context.Context) error {
	f.mu.Lock()
	first := !f.issued
	f.issued = true
	f.mu.Unlock()

	if first {
		return nil
	}
	return sleepContext(ctx, randomDuration(f.delayMin, f.delayMax))
}

// backoff 重试前退避等待
func (f *Fetcher) backoff(ctx context.Context) error {
	return sleepContext(ctx, randomDuration(f.BackoffMin, f.BackoffMax))
}

// randomDuration 返回 [min, max] 秒区间内的均匀随机时长
func randomDuration(min, max float64) time.Duration {
	if max <= min {
		return time.Duration(min * float64(time.Second))
	}
	seconds := min + rand.Float64()*(max-min)
	return time.Duration(seconds * float64(time.Second))
}

// sleepContext 可被ctx取消的睡眠
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classifyNetworkError 区分超时与一般网络错误
func classifyNetworkError(err error) models.FetchErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.FetchErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.FetchErrTimeout
	}
	return models.FetchErrNetwork
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		return io.ReadAll(reader)

	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))

	case "":
		return body, nil

	default:
		// 未知编码,返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
