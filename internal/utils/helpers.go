package utils

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/BizFindcrack/internal/models"
)

// ReadQueriesFromFile 从文件中读取搜索请求列表
// 每行格式: "关键词" 或 "关键词,地点",支持#注释和空行
func ReadQueriesFromFile(filepath string) ([]models.QuerySpec, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开查询文件失败: %w", err)
	}
	defer file.Close()

	queries := make([]models.QuerySpec, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		spec := models.QuerySpec{Query: line}
		if idx := strings.Index(line, ","); idx >= 0 {
			spec.Query = strings.TrimSpace(line[:idx])
			spec.Location = strings.TrimSpace(line[idx+1:])
		}

		if spec.Query == "" {
			Warnf("跳过无效查询 (行 %d): 关键词为空", lineNum)
			continue
		}

		queries = append(queries, spec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取查询文件失败: %w", err)
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("查询文件中没有有效的查询")
	}

	Infof("从文件加载了 %d 条查询", len(queries))
	return queries, nil
}

var (
	unsafeChars = regexp.MustCompile(`[^\w\s-]`)
	spaceOrDash = regexp.MustCompile(`[-\s]+`)
)

// SafeFilename 根据搜索关键词生成安全的输出文件名
// 例如: "Plombier Quebec" -> "plombier_quebec.csv"
func SafeFilename(query string) string {
	name := strings.ToLower(strings.TrimSpace(query))
	name = unsafeChars.ReplaceAllString(name, "")
	name = spaceOrDash.ReplaceAllString(name, "_")
	if name == "" {
		name = "results"
	}
	return name + ".csv"
}
