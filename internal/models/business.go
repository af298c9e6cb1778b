package models

import "strings"

// BusinessRecord 单条商家记录
// 对应搜索结果页中的一个商家条目(listing block)
// Name为必填字段,其余字段缺失时保持空字符串
type BusinessRecord struct {
	// Name 商家名称 (必填,无名称的条目在解析阶段被丢弃)
	Name string `json:"name"`

	// Phone 电话号码 (可选,保留页面原始格式)
	Phone string `json:"phone,omitempty"`

	// Website 商家官网绝对URL (可选)
	Website string `json:"website,omitempty"`

	// Email 邮箱地址 (可选,仅由富化阶段填充)
	Email string `json:"email,omitempty"`
}

// IsValid 记录是否有效 (名称非空)
func (r *BusinessRecord) IsValid() bool {
	return strings.TrimSpace(r.Name) != ""
}

// HasWebsite 是否有官网可供邮箱富化
func (r *BusinessRecord) HasWebsite() bool {
	return r.Website != ""
}

// HasEmail 是否已提取到邮箱
func (r *BusinessRecord) HasEmail() bool {
	return r.Email != ""
}
