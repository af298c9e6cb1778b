package main

import (
	"fmt"
	"strings"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(
	query string,
	queryFile string,
	maxPages int,
	delayMin float64,
	delayMax float64,
	workers int,
) error {
	// 关键词与查询文件二选一
	if strings.TrimSpace(query) == "" && queryFile == "" {
		return fmt.Errorf("必须提供搜索关键词 (-q) 或查询文件 (-f)")
	}

	// 验证页数
	if maxPages < 1 || maxPages > 100 {
		return fmt.Errorf("页数必须在1-100之间,当前值: %d", maxPages)
	}

	// 验证延迟区间
	if delayMin < 0 {
		return fmt.Errorf("最小延迟不能为负数,当前值: %.1f", delayMin)
	}
	if delayMax < delayMin {
		return fmt.Errorf("最大延迟不能小于最小延迟,当前区间: [%.1f, %.1f]", delayMin, delayMax)
	}

	// 验证并发数
	if workers < 0 || workers > 32 {
		return fmt.Errorf("并发数必须在0-32之间,当前值: %d", workers)
	}

	return nil
}

// ValidateQueryFile 验证查询文件路径
func ValidateQueryFile(filepath string) error {
	if filepath == "" {
		return fmt.Errorf("查询文件路径不能为空")
	}
	// 文件存在性检查将在运行时进行
	return nil
}
