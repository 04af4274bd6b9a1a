package autoclose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron"
)

// Schedule 按 cron 表达式周期性执行 job，调用方负责在退出时 Stop
func Schedule(ctx context.Context, job *Job, spec string, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New()

	err := c.AddFunc(spec, func() {
		report, err := job.Run(ctx)
		if errors.Is(err, ErrLocked) {
			logger.Debug("自动关闭任务已由其他实例执行")
			return
		}
		if err != nil {
			logger.Error("自动关闭任务执行失败", "error", err)
			return
		}
		logger.Info("自动关闭任务执行完成",
			"scanned", report.Scanned,
			"closed", report.Closed,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("无效的自动关闭调度表达式 %q: %w", spec, err)
	}

	c.Start()
	return c, nil
}
