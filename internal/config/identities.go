package config

import (
	"math/rand"
	"net/http"
)

// IdentityProfile 身份头部集合
// 每次请求前随机选择一个,降低出站请求的一致性以避免被目标站点识别
type IdentityProfile struct {
	// Name 身份名称 (仅用于日志)
	Name string

	// UserAgent 客户端标识
	UserAgent string
}

// identityPool 内置身份池 (主流桌面浏览器,Windows/macOS/Linux混合)
// 池大小必须不小于5
var identityPool = []IdentityProfile{
	{
		Name:      "chrome-windows",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	},
	{
		Name:      "chrome-macos",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	},
	{
		Name:      "chrome-linux",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	},
	{
		Name:      "firefox-windows",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	},
	{
		Name:      "firefox-macos",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	},
}

// IdentityPoolSize 身份池大小
func IdentityPoolSize() int {
	return len(identityPool)
}

// Identities 返回身份池的副本
func Identities() []IdentityProfile {
	out := make([]IdentityProfile, len(identityPool))
	copy(out, identityPool)
	return out
}

// RandomIdentity 随机选取一个身份
func RandomIdentity() IdentityProfile {
	return identityPool[rand.Intn(len(identityPool))]
}

// BaseHeaders 构造指定身份的完整浏览器头部
// 除User-Agent外,其余头部在所有身份间共用 (与主流浏览器导航请求一致)
func BaseHeaders(identity IdentityProfile) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", identity.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9,fr;q=0.8")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Cache-Control", "max-age=0")
	return h
}
