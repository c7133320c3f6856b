package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"OrderInsight/src/config"
	"OrderInsight/src/datasource/file"
	"OrderInsight/src/report"
	"OrderInsight/src/storage"
)

const (
	jsonFile     = "config.json"
	dataJsonFile = "dataconfig.json"
)

// options 命令行参数
type options struct {
	configDir string
	watch     bool
	outDir    string
	dataset   string
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := flag.NewFlagSet("orderinsight", flag.ContinueOnError)
	flags.StringVar(&opts.configDir, "config", "./config", "配置文件目录")
	flags.BoolVar(&opts.watch, "watch", false, "监控数据集变化并重新生成报告")
	flags.StringVar(&opts.outDir, "out", "", "报告输出目录, 覆盖配置")
	flags.StringVar(&opts.dataset, "dataset", "", "数据集路径, 覆盖配置")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadConfig 读取配置, 配置文件不存在时使用默认值
func loadConfig(dir string) (*config.Config, *config.DataConfig, bool, error) {
	cfg, dcfg, err := config.LoadConfig(dir, jsonFile, dataJsonFile)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, dcfg = config.Default()
		return cfg, dcfg, true, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	return cfg, dcfg, false, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, dcfg, defaults, err := loadConfig(opts.configDir)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if opts.outDir != "" {
		cfg.OutputDir = opts.outDir
	}
	if opts.dataset != "" {
		cfg.DatasetPath = opts.dataset
	}
	if opts.watch {
		cfg.Watch.Enabled = true
	}

	// 初始化日志系统
	var mirrors []io.Writer
	if cfg.LogConsole {
		mirrors = append(mirrors, stdout)
	}
	logger, err := storage.NewLogger(cfg.LogName, mirrors...)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Close()
	if err := logger.SetMaxSize(cfg.LogMaxSize); err != nil {
		logger.Warning("日志轮转大小无效, 不轮转: " + err.Error())
	}
	if defaults {
		logger.Info(fmt.Sprintf("未找到配置文件(%s), 使用默认配置", filepath.Join(opts.configDir, jsonFile)))
	}

	gen := report.NewGenerator(cfg, dcfg, stdout, logger)

	if _, err := gen.Generate(); err != nil {
		logger.Error("生成报告失败: " + err.Error())
		if !cfg.Watch.Enabled {
			return err
		}
	}

	if !cfg.Watch.Enabled {
		return nil
	}
	return watch(ctx, cfg, gen, logger)
}

// watch 数据集变化或定时刷新时重新生成报告, SIGHUP重新打开日志文件
func watch(ctx context.Context, cfg *config.Config, gen *report.Generator, logger *storage.Logger) error {
	monitor, err := file.NewFileMonitor(cfg.DatasetPath, cfg.Watch.Refresh, time.Duration(cfg.Watch.Debounce))
	if err != nil {
		return fmt.Errorf("创建文件监控失败: %w", err)
	}
	defer monitor.Close()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				if err := logger.Reopen(""); err != nil {
					logger.Error("重新打开日志失败: " + err.Error())
					continue
				}
				logger.Info("Received signal: SIGHUP, log file reopened")
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info(fmt.Sprintf("监控数据集 %s (刷新: %q)，按Ctrl+C退出", cfg.DatasetPath, cfg.Watch.Refresh))

	err = monitor.Run(ctx, func(reason string) {
		logger.Info("重新生成报告, 原因: " + reason)
		if reason == file.ReasonRefresh {
			gen.Invalidate()
		}
		if _, err := gen.Generate(); err != nil {
			logger.Error("生成报告失败: " + err.Error())
		}
	})
	logger.Info("监控已停止")
	return err
}
