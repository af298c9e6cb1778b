package scrape

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
)

var (
	// emailRegex 邮箱地址模式 (词边界约束,顶级域至少2个字母)
	emailRegex = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)

	// emailFalsePositives 常见误报片段,命中即丢弃
	emailFalsePositives = []string{
		"example.com", "test.com", "sample.com", "placeholder",
		".png", ".jpg", ".gif", ".css", ".js", ".pdf",
		"noreply", "no-reply", "donotreply",
	}
)

// EmailExtractor 邮箱提取器
// 只抓取官网落地页,不跟进"联系我们"等二级链接 (刻意的浅提取策略)
// 任何抓取或解析失败都只产生"未找到",不向上传播
type EmailExtractor struct {
	fetcher *Fetcher
}

// NewEmailExtractor 创建邮箱提取器
func NewEmailExtractor(fetcher *Fetcher) *EmailExtractor {
	return &EmailExtractor{
		fetcher: fetcher,
	}
}

// Extract 从官网落地页提取第一个邮箱地址
// 返回 (邮箱, 是否找到);失败时记录日志并返回未找到
func (e *EmailExtractor) Extract(ctx context.Context, websiteURL string) (string, bool) {
	utils.Debugf("检查官网: %s", websiteURL)

	result, err := e.fetcher.Fetch(ctx, websiteURL)
	if err != nil {
		utils.Debugf("官网抓取失败 [%s]: %v", websiteURL, err)
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		utils.Debugf("官网页面解析失败 [%s]: %v", websiteURL, err)
		return "", false
	}

	// 优先mailto链接 (最可靠)
	if email, found := extractMailtoEmail(doc); found {
		return email, true
	}

	// 回退到页面文本的正则搜索
	return ExtractEmailFromText(doc.Text())
}

// extractMailtoEmail 从mailto:链接中提取邮箱
func extractMailtoEmail(doc *goquery.Document) (string, bool) {
	var email string
	doc.Find("a[href^=\"mailto:\"]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		candidate := strings.TrimPrefix(href, "mailto:")

		// 去掉 ?subject=... 等参数
		if idx := strings.IndexAny(candidate, "?&"); idx >= 0 {
			candidate = candidate[:idx]
		}

		if isWellFormedEmail(candidate) && !isEmailFalsePositive(candidate) {
			email = candidate
			return false
		}
		return true
	})
	return email, email != ""
}

// ExtractEmailFromText 在任意文本中搜索第一个格式良好的邮箱地址
// 过滤常见误报 (占位域名、资源文件名、noreply类地址)
func ExtractEmailFromText(text string) (string, bool) {
	for _, candidate := range emailRegex.FindAllString(text, -1) {
		if !isEmailFalsePositive(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// isWellFormedEmail 候选字符串整体是否为格式良好的邮箱
func isWellFormedEmail(candidate string) bool {
	return emailRegex.FindString(candidate) == candidate
}

// isEmailFalsePositive 是否命中误报名单
func isEmailFalsePositive(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, pattern := range emailFalsePositives {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
