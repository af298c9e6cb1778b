package scrape

import (
	"runtime"

	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// maxAutoWorkers 自动并发数上限
	// 目标站点是小企业官网,过高的并发更多触发封禁而非提速
	maxAutoWorkers = 8

	// memoryPerWorker 单个worker的内存预估 (解压后的页面+DOM)
	memoryPerWorker = 64 * 1024 * 1024
)

// AutoWorkers 根据机器CPU和可用内存计算富化并发数
// 读取系统信息失败时退回 runtime.NumCPU
func AutoWorkers() int {
	workers := runtime.NumCPU()

	if counts, err := cpu.Counts(true); err == nil && counts > 0 {
		workers = counts
	} else if err != nil {
		utils.Debugf("读取CPU核数失败: %v, 使用 runtime.NumCPU=%d", err, workers)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		byMemory := int(vm.Available / memoryPerWorker)
		if byMemory < workers {
			utils.Debugf("可用内存 %d MB 限制并发数: %d -> %d",
				vm.Available/(1024*1024), workers, byMemory)
			workers = byMemory
		}
	}

	if workers > maxAutoWorkers {
		workers = maxAutoWorkers
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
