package unit

import (
	"testing"

	"github.com/RecoveryAshes/BizFindcrack/internal/core"
)

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	t.Run("无任何覆盖时为空", func(t *testing.T) {
		// 随机身份头部由抓取器单独应用,管理器只持有用户覆盖
		hm, err := core.NewHeaderManager("", nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()
		if len(headers) != 0 {
			t.Errorf("期望空头部集合, 实际=%v", headers)
		}
	})

	t.Run("命令行头部生效", func(t *testing.T) {
		cliHeaders := []string{
			"Accept-Language: fr-CA",
		}

		hm, err := core.NewHeaderManager("", cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()
		lang := headers.Get("Accept-Language")

		if lang != "fr-CA" {
			t.Errorf("期望Accept-Language='fr-CA', 实际='%s'", lang)
		}
	})

	t.Run("多个命令行头部", func(t *testing.T) {
		cliHeaders := []string{
			"User-Agent: CustomBot/1.0",
			"X-Custom: value1",
			"Authorization: Bearer token123",
		}

		hm, err := core.NewHeaderManager("", cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()

		if headers.Get("User-Agent") != "CustomBot/1.0" {
			t.Error("User-Agent未正确设置")
		}

		if headers.Get("X-Custom") != "value1" {
			t.Error("X-Custom未正确设置")
		}

		if headers.Get("Authorization") != "Bearer token123" {
			t.Error("Authorization未正确设置")
		}
	})
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	t.Run("敏感头部脱敏", func(t *testing.T) {
		cliHeaders := []string{
			"User-Agent: CustomBot/1.0",
			"Authorization: Bearer secret-token-12345",
			"X-Api-Key: api-key-67890",
		}

		hm, err := core.NewHeaderManager("", cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		safeHeaders := hm.GetSafeHeaders()

		// 验证普通头部未脱敏
		if safeHeaders["User-Agent"] != "CustomBot/1.0" {
			t.Error("普通头部不应该被脱敏")
		}

		// 验证Authorization被脱敏
		if safeHeaders["Authorization"] == "Bearer secret-token-12345" {
			t.Error("Authorization应该被脱敏")
		}

		if safeHeaders["Authorization"] != "Bearer ***" {
			t.Errorf("期望Authorization='Bearer ***', 实际='%s'", safeHeaders["Authorization"])
		}

		// 验证API Key被脱敏
		if safeHeaders["X-Api-Key"] == "api-key-67890" {
			t.Error("X-Api-Key应该被脱敏")
		}
	})
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("非法命令行参数返回错误", func(t *testing.T) {
		cliHeaders := []string{
			"InvalidFormat", // 缺少冒号
		}

		_, err := core.NewHeaderManager("", cliHeaders)
		if err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	t.Run("禁止头部返回验证错误", func(t *testing.T) {
		cliHeaders := []string{
			"Host: example.com", // 禁止头部
		}

		hm, err := core.NewHeaderManager("", cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		_, err = hm.GetHeaders()
		if err == nil {
			t.Error("期望返回验证错误, 但成功了")
		}
	})

	t.Run("成功场景", func(t *testing.T) {
		cliHeaders := []string{
			"Accept-Language: fr-CA",
			"X-Custom: test-value",
		}

		hm, err := core.NewHeaderManager("", cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers, err := hm.GetHeaders()
		if err != nil {
			t.Fatalf("GetHeaders失败: %v", err)
		}

		if headers.Get("Accept-Language") != "fr-CA" {
			t.Error("Accept-Language未正确设置")
		}

		if headers.Get("X-Custom") != "test-value" {
			t.Error("X-Custom未正确设置")
		}
	})
}
