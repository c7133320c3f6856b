// monitor.go
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"
)

// 触发重新生成报告的原因
const (
	ReasonChanged = "changed"
	ReasonRemoved = "removed"
	ReasonRefresh = "refresh"
)

// FileMonitor 监控数据集文件, 文件变化或定时刷新时回调
// 回调在Run所在的goroutine中依次执行
type FileMonitor struct {
	target   string
	watcher  *fsnotify.Watcher
	schedule cron.Schedule
	debounce time.Duration
	lastMod  time.Time
	lastSize int64
}

// NewFileMonitor 监控path所在目录
// refresh 为空时不定时刷新, 否则为cron表达式(如 "@every 10m")
func NewFileMonitor(path, refresh string, debounce time.Duration) (*FileMonitor, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	var schedule cron.Schedule
	if refresh != "" {
		schedule, err = cron.Parse(refresh)
		if err != nil {
			return nil, fmt.Errorf("解析刷新周期%q失败: %w", refresh, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	m := &FileMonitor{
		target:   target,
		watcher:  watcher,
		schedule: schedule,
		debounce: debounce,
	}
	if info, err := os.Stat(target); err == nil {
		m.lastMod, m.lastSize = info.ModTime(), info.Size()
	}
	return m, nil
}

// Close 停止监控
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

// Run 阻塞直到ctx结束或watcher出错
func (m *FileMonitor) Run(ctx context.Context, handler func(reason string)) error {
	var (
		settle   *time.Timer
		settleC  <-chan time.Time
		refresh  *time.Timer
		refreshC <-chan time.Time
	)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
		if refresh != nil {
			refresh.Stop()
		}
	}()

	armRefresh := func() {
		if m.schedule == nil {
			return
		}
		now := time.Now()
		refresh = time.NewTimer(m.schedule.Next(now).Sub(now))
		refreshC = refresh.C
	}
	armRefresh()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !m.isTarget(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// 同一次保存可能产生多次写事件, 等文件稳定后再处理
			if settle != nil {
				settle.Stop()
			}
			settle = time.NewTimer(m.debounce)
			settleC = settle.C

		case <-settleC:
			settle, settleC = nil, nil
			if reason, ok := m.checkChange(); ok {
				handler(reason)
			}

		case <-refreshC:
			handler(ReasonRefresh)
			armRefresh()

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// checkChange 修改时间或大小与上次不同即视为变化
func (m *FileMonitor) checkChange() (string, bool) {
	info, err := os.Stat(m.target)
	if err != nil {
		if m.lastMod.IsZero() {
			return "", false
		}
		m.lastMod, m.lastSize = time.Time{}, 0
		return ReasonRemoved, true
	}

	if m.lastMod.IsZero() || !info.ModTime().Equal(m.lastMod) || info.Size() != m.lastSize {
		m.lastMod, m.lastSize = info.ModTime(), info.Size()
		return ReasonChanged, true
	}
	return "", false
}

func (m *FileMonitor) isTarget(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == m.target
}
