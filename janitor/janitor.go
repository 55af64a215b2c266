package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chaos-io/cutout/util"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor 定时删除上传和输出目录中过期的文件
type Janitor struct {
	cron   *cron.Cron
	dirs   []string
	maxAge time.Duration
	now    func() time.Time
}

func New(schedule string, maxAge time.Duration, dirs ...string) (*Janitor, error) {
	j := &Janitor{
		cron:   cron.New(),
		dirs:   dirs,
		maxAge: maxAge,
		now:    time.Now,
	}

	_, err := j.cron.AddFunc(schedule, func() {
		removed, err := j.Sweep()
		if err != nil {
			util.Logger.Warn("sweep failed", zap.Error(err))
		}
		util.Logger.Info("sweep finished", zap.Int("removed", removed))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop 返回的 context 在正在执行的任务结束后 Done
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

// Sweep 删除修改时间早于 maxAge 的普通文件，返回删除数量
func (j *Janitor) Sweep() (int, error) {
	cutoff := j.now().Add(-j.maxAge)
	removed := 0

	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("read dir %s: %w", dir, err)
		}

		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				util.Logger.Warn("failed to delete expired file", zap.String("file", path), zap.Error(err))
				continue
			}
			util.Logger.Debug("expired file deleted", zap.String("file", path))
			removed++
		}
	}
	return removed, nil
}
