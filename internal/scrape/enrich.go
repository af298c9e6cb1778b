package scrape

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/RecoveryAshes/BizFindcrack/internal/models"
	"github.com/RecoveryAshes/BizFindcrack/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Enricher 富化协调器
// 对每条含官网的记录调用EmailExtractor,合并结果
// 返回序列与输入等长且顺序一致;无官网的记录原样通过
type Enricher struct {
	extractor *EmailExtractor

	// workers 并发数 (1=串行, 0=按机器资源自动)
	workers int

	// hostRPS 并发模式下单域名请求速率上限
	// 串行模式下请求天然被fetcher的延迟节流,无需额外限速
	hostRPS float64

	// limiters 每个目标域名一个限速器
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// NewEnricher 创建富化协调器
func NewEnricher(extractor *EmailExtractor, workers int, hostRPS float64) *Enricher {
	return &Enricher{
		extractor: extractor,
		workers:   workers,
		hostRPS:   hostRPS,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Enrich 对记录集执行邮箱富化
// ctx取消时停止剩余查找,但已完成的富化结果保留并返回
func (en *Enricher) Enrich(ctx context.Context, records []models.BusinessRecord) []models.BusinessRecord {
	out := make([]models.BusinessRecord, len(records))
	copy(out, records)

	// 收集待富化的记录下标
	targets := make([]int, 0, len(out))
	for i := range out {
		if out[i].HasWebsite() {
			targets = append(targets, i)
		}
	}

	if len(targets) == 0 {
		utils.Info("没有含官网的记录,跳过邮箱富化")
		return out
	}

	workers := en.workers
	if workers == 0 {
		workers = AutoWorkers()
		utils.Infof("自动确定富化并发数: %d", workers)
	}

	utils.Infof("📧 开始邮箱富化: %d 个官网 (并发=%d)", len(targets), workers)
	bar := utils.NewProgressBar(len(targets), "邮箱富化")

	if workers <= 1 {
		en.enrichSequential(ctx, out, targets, bar)
	} else {
		en.enrichParallel(ctx, out, targets, workers, bar)
	}

	return out
}

// enrichSequential 串行富化 (基线模式)
// fetcher的请求间延迟天然串联,无需显式限速
func (en *Enricher) enrichSequential(ctx context.Context, records []models.BusinessRecord, targets []int, bar progressAdder) {
	for n, i := range targets {
		if ctx.Err() != nil {
			utils.Warnf("邮箱富化中断 (%d/%d), 保留已完成的结果", n, len(targets))
			return
		}

		utils.Debugf("富化 %d/%d: %s", n+1, len(targets), records[i].Name)
		if email, found := en.extractor.Extract(ctx, records[i].Website); found {
			records[i].Email = email
			utils.Infof("找到邮箱 [%s]: %s", records[i].Name, email)
		}
		_ = bar.Add(1)
	}
}

// enrichParallel 并发富化
// 按下标写回结果,输出顺序与输入一致;单域名速率由限速器约束
func (en *Enricher) enrichParallel(ctx context.Context, records []models.BusinessRecord, targets []int, workers int, bar progressAdder) {
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, i := range targets {
		i := i
		g.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}

			if limiter := en.hostLimiter(records[i].Website); limiter != nil {
				if err := limiter.Wait(groupCtx); err != nil {
					return nil
				}
			}

			if email, found := en.extractor.Extract(groupCtx, records[i].Website); found {
				records[i].Email = email
				utils.Infof("找到邮箱 [%s]: %s", records[i].Name, email)
			}
			_ = bar.Add(1)
			return nil
		})
	}

	// worker永不返回错误,Wait只等待全部完成
	_ = g.Wait()
}

// hostLimiter 返回目标域名对应的限速器
func (en *Enricher) hostLimiter(websiteURL string) *rate.Limiter {
	if en.hostRPS <= 0 {
		return nil
	}

	parsed, err := url.Parse(websiteURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	host := strings.ToLower(parsed.Host)

	en.mu.Lock()
	defer en.mu.Unlock()

	limiter, ok := en.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(en.hostRPS), 1)
		en.limiters[host] = limiter
	}
	return limiter
}

// progressAdder 进度上报接口 (测试中可用空实现替代进度条)
type progressAdder interface {
	Add(num int) error
}
