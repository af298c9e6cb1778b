package utils

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/schollz/progressbar/v3"
)

// CSVHeader 导出文件的列顺序
var CSVHeader = []string{"Company Name", "Phone Number", "Website URL", "Email Address"}

// Reporter 结果导出器
// 负责CSV导出和JSON报告生成 (Result Sink)
type Reporter struct {
	outputDir string
}

// NewReporter 创建结果导出器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
	}
}

// WriteCSV 将记录集导出为CSV文件
// 保持聚合顺序,字段缺失时输出空列
func (r *Reporter) WriteCSV(filename string, records []models.BusinessRecord) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	path := filepath.Join(r.outputDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(CSVHeader); err != nil {
		return "", fmt.Errorf("写入CSV表头失败: %w", err)
	}

	for i := range records {
		row := []string{records[i].Name, records[i].Phone, records[i].Website, records[i].Email}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("写入CSV行失败: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("刷新CSV文件失败: %w", err)
	}

	Infof("✅ 已导出 %d 条记录: %s", len(records), path)
	return path, nil
}

// WriteReport 保存JSON抓取报告
func (r *Reporter) WriteReport(report *models.ScrapeReport) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	path := filepath.Join(r.outputDir, fmt.Sprintf("scrape_report_%s.json", report.TaskID))
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return path, nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
