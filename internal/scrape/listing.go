package scrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
	"golang.org/x/net/html"
)

// listingSelectors 定位搜索结果页中商家条目块的选择器列表
// 目标站点标记经常变动,按顺序尝试,命中即用
// 标记漂移时只需调整此列表 (唯一扩展点)
var listingSelectors = []string{
	// 站点专有选择器
	"div[data-yext-id]",
	"div[data-business-id]",
	"div.listing",
	"div.search-results__item",
	"div.result-item",
	"div.business-result",
	"article.listing",
	"div.merchant",
	"div.business-listing",

	// 通用模式
	"div[class*=\"listing\"]",
	"div[class*=\"business\"]",
	"div[class*=\"result\"]",
	"div[class*=\"merchant\"]",
	"li[class*=\"listing\"]",
	"li[class*=\"business\"]",
}

// nameSelectors 商家名称选择器 (按优先级)
var nameSelectors = []string{
	"h2 a", "h3 a", "h4 a",
	".business-name a", ".merchant-name a", ".listing-name a",
	".title a", ".name a",
	"a[href*=\"/bus/\"]",
	"h2", "h3", "h4",
	".business-name", ".merchant-name", ".listing-name",
	".title", ".name",
	"[data-business-name]",
	"[data-merchant-name]",
}

// phoneSelectors 电话号码选择器
var phoneSelectors = []string{
	".phone", ".telephone", ".tel",
	".contact-phone", ".business-phone",
	"[data-phone]", "[data-telephone]",
	"a[href^=\"tel:\"]",
	".contact-info", ".contact-details",
}

// websiteSelectors 官网链接选择器 (目录站点的website条目)
var websiteSelectors = []string{
	".mlr__item--website a",
	"li[class*=\"website\"] a",
	"li[class*=\"site\"] a",
	".website a", ".site a", ".web a",
	".business-website a", ".merchant-website a",
}

var (
	// phoneRegex 北美电话号码格式
	phoneRegex = regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)

	// nonDigitRegex 用于提取纯数字
	nonDigitRegex = regexp.MustCompile(`[^\d]`)

	// socialDomains 不视为商家官网的社交平台域名
	socialDomains = []string{
		"facebook.com", "twitter.com", "instagram.com", "linkedin.com", "youtube.com",
	}
)

// ListingParser 搜索结果页解析器
// 对畸形输入永不报错: 字段缺失视为数据缺失而非解析失败
type ListingParser struct {
	// directoryHost 目录站点自身域名,其链接不作为商家官网
	directoryHost string
}

// NewListingParser 创建解析器
// directoryHost为目录站点域名 (如 "pagesjaunes.ca", www.前缀被忽略)
func NewListingParser(directoryHost string) *ListingParser {
	return &ListingParser{
		directoryHost: strings.TrimPrefix(strings.ToLower(directoryHost), "www."),
	}
}

// Parse 将一个搜索结果页解析为零或多条商家记录
// 无名称的条目块被整体丢弃;电话/官网相互独立,任一缺失不影响另一个
func (p *ListingParser) Parse(pageHTML string) []models.BusinessRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		// goquery几乎不会在此失败,保险起见按空页处理
		utils.Debugf("解析页面结构失败: %v", err)
		return nil
	}

	blocks := p.findListingBlocks(doc)
	if blocks == nil {
		return nil
	}

	records := make([]models.BusinessRecord, 0, blocks.Length())
	blocks.Each(func(_ int, block *goquery.Selection) {
		record := models.BusinessRecord{
			Name:    p.extractName(block),
			Phone:   p.extractPhone(block),
			Website: p.extractWebsite(block),
		}

		// 无名称的块不构成记录
		if !record.IsValid() {
			utils.Debugf("条目块无商家名称,丢弃")
			return
		}

		records = append(records, record)
	})

	return records
}

// findListingBlocks 定位页面中的商家条目块
// 依次尝试listingSelectors,全部未命中时回退到商家详情链接的父容器
func (p *ListingParser) findListingBlocks(doc *goquery.Document) *goquery.Selection {
	for _, selector := range listingSelectors {
		blocks := doc.Find(selector)
		if blocks.Length() > 0 {
			utils.Debugf("使用选择器 %q 定位到 %d 个条目块", selector, blocks.Length())
			return blocks
		}
	}

	// 回退: 从商家详情链接向上找父容器
	links := doc.Find("a[href*=\"/bus/\"]")
	if links.Length() == 0 {
		return nil
	}

	utils.Debugf("选择器全部未命中,回退到 %d 个商家链接的父容器", links.Length())
	seen := make(map[*html.Node]bool)
	nodes := make([]*html.Node, 0, links.Length())
	links.Each(func(_ int, link *goquery.Selection) {
		parent := link.ParentsFiltered("div").First()
		if parent.Length() == 0 {
			return
		}
		node := parent.Get(0)
		if seen[node] {
			return
		}
		seen[node] = true
		nodes = append(nodes, node)
	})

	if len(nodes) == 0 {
		return nil
	}
	return doc.FindNodes(nodes...)
}

// extractName 提取商家名称
// 名称至少2个字符,过短视为无效
func (p *ListingParser) extractName(block *goquery.Selection) string {
	for _, selector := range nameSelectors {
		elem := block.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		name := strings.TrimSpace(elem.Text())
		if len(name) > 1 {
			return name
		}
	}
	return ""
}

// extractPhone 提取电话号码
// 优先专用选择器 (tel:链接、data属性),回退到块内全文的正则匹配
func (p *ListingParser) extractPhone(block *goquery.Selection) string {
	for _, selector := range phoneSelectors {
		elem := block.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}

		var phoneText string
		if href, ok := elem.Attr("href"); ok && strings.Contains(href, "tel:") {
			phoneText = strings.TrimPrefix(href, "tel:")
		} else if v, ok := elem.Attr("data-phone"); ok {
			phoneText = v
		} else if v, ok := elem.Attr("data-telephone"); ok {
			phoneText = v
		} else {
			phoneText = strings.TrimSpace(elem.Text())
		}

		if phone := cleanPhoneNumber(phoneText); phone != "" {
			return phone
		}
	}

	// 回退: 块内全文正则搜索
	if match := phoneRegex.FindString(block.Text()); match != "" {
		return cleanPhoneNumber(match)
	}

	return ""
}

// cleanPhoneNumber 清洗电话号码
// 过滤混入的非电话文本,规范10/11位纯数字格式
func cleanPhoneNumber(phoneText string) string {
	if phoneText == "" {
		return ""
	}

	// 排除误命中的非电话文本
	lower := strings.ToLower(phoneText)
	for _, word := range []string{"email", "site", "web", "www", "http"} {
		if strings.Contains(lower, word) {
			return ""
		}
	}

	// 带分隔符的号码按原格式保留;纯数字串落到下方重排为规范格式
	if match := strings.TrimSpace(phoneRegex.FindString(phoneText)); match != "" && nonDigitRegex.MatchString(match) {
		return match
	}

	digits := nonDigitRegex.ReplaceAllString(phoneText, "")
	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return fmt.Sprintf("1-(%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	}

	return ""
}

// extractWebsite 提取商家官网URL
// 策略顺序:
//  1. 目录站点的跳转链接 (/gourl/...?redirect=编码后的真实URL)
//  2. website条目选择器
//  3. 块内任意外部http(s)链接 (排除目录自身、tel:/mailto:和社交平台)
func (p *ListingParser) extractWebsite(block *goquery.Selection) string {
	// 策略1: 跳转链接中的redirect参数
	var redirected string
	block.Find("a[href*=\"redirect=\"]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if !strings.Contains(href, "/gourl/") {
			return true
		}
		if website := decodeRedirectURL(href); website != "" {
			redirected = website
			return false
		}
		return true
	})
	if redirected != "" {
		return redirected
	}

	// 策略2: website条目选择器
	for _, selector := range websiteSelectors {
		elem := block.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		href, _ := elem.Attr("href")
		if strings.Contains(href, "redirect=") {
			if website := decodeRedirectURL(href); website != "" {
				return website
			}
			continue
		}
		if p.isExternalWebsite(href) {
			return href
		}
	}

	// 策略3: 任意外部链接
	var external string
	block.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if p.isExternalWebsite(href) {
			external = href
			return false
		}
		return true
	})

	return external
}

// decodeRedirectURL 从跳转链接中还原真实官网URL
// 形如 /gourl/xxx?redirect=https%3A%2F%2Fexample.com
func decodeRedirectURL(href string) string {
	idx := strings.Index(href, "redirect=")
	if idx < 0 {
		return ""
	}
	param := href[idx+len("redirect="):]
	if amp := strings.Index(param, "&"); amp >= 0 {
		param = param[:amp]
	}

	decoded, err := url.QueryUnescape(param)
	if err != nil {
		utils.Debugf("解码跳转链接失败 [%s]: %v", href, err)
		return ""
	}

	switch {
	case strings.HasPrefix(decoded, "http://"), strings.HasPrefix(decoded, "https://"):
		return decoded
	case strings.HasPrefix(decoded, "www."):
		return "https://" + decoded
	case strings.Contains(decoded, ".") && !strings.HasPrefix(decoded, "/"):
		return "https://" + decoded
	}
	return ""
}

// isExternalWebsite 判断链接是否为可用的商家外部官网
func (p *ListingParser) isExternalWebsite(href string) bool {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return false
	}

	lower := strings.ToLower(href)
	if p.directoryHost != "" && strings.Contains(lower, p.directoryHost) {
		return false
	}
	for _, domain := range socialDomains {
		if strings.Contains(lower, domain) {
			return false
		}
	}
	return true
}
