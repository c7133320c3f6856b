package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"OrderInsight/src/config"
	"OrderInsight/src/datasource/file"
	"OrderInsight/src/processor"
)

// Logger 生成过程使用的日志接口, *storage.Logger 满足该接口
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// Generator 加载数据集并生成报告
type Generator struct {
	DatasetPath  string
	OutputDir    string
	HistogramPNG string
	Workbook     string

	out   io.Writer
	log   Logger
	cache *file.DatasetCache
	proc  *processor.DeliveryProcessor
	bins  int
}

func NewGenerator(cfg *config.Config, dcfg *config.DataConfig, out io.Writer, log Logger) *Generator {
	return &Generator{
		DatasetPath:  cfg.DatasetPath,
		OutputDir:    cfg.OutputDir,
		HistogramPNG: cfg.Report.HistogramPNG,
		Workbook:     cfg.Report.Workbook,
		out:          out,
		log:          log,
		cache:        file.NewDatasetCache(file.OptionsFromConfig(dcfg)),
		proc:         processor.NewDeliveryProcessor(dcfg),
		bins:         dcfg.HistogramBins,
	}
}

// Generate 生成一次报告
// 数据集不存在时输出警告并返回 (nil, nil)
func (g *Generator) Generate() (*processor.Analysis, error) {
	start := time.Now()

	ds, fromCache, err := g.cache.Load(g.DatasetPath)
	if errors.Is(err, file.ErrDatasetNotFound) {
		g.log.Warning(fmt.Sprintf("数据集不存在: %v", err))
		return nil, RenderNotFound(g.out, g.DatasetPath)
	}
	if err != nil {
		return nil, fmt.Errorf("加载数据集失败: %w", err)
	}
	g.log.Info(fmt.Sprintf("加载数据集 %s, %d行, 缓存: %t", ds.Path, ds.Frame.Nrow(), fromCache))

	a, err := g.proc.Analyze(ds.Frame)
	if err != nil {
		return nil, fmt.Errorf("分析数据失败: %w", err)
	}

	if err := RenderText(g.out, ds.Path, a); err != nil {
		return a, fmt.Errorf("输出文本报告失败: %w", err)
	}

	if err := os.MkdirAll(g.OutputDir, 0755); err != nil {
		return a, fmt.Errorf("创建输出目录失败: %w", err)
	}

	if g.HistogramPNG != "" {
		pngPath := filepath.Join(g.OutputDir, g.HistogramPNG)
		err := WriteHistogram(pngPath, a.DeliveryDays, g.bins, a.MeanDeliveryDays)
		switch {
		case errors.Is(err, ErrNoData):
			g.log.Warning("清洗后没有数据, 跳过直方图")
		case err != nil:
			return a, err
		default:
			g.log.Info("直方图已保存: " + pngPath)
		}
	}

	if g.Workbook != "" {
		xlsxPath := filepath.Join(g.OutputDir, g.Workbook)
		if err := ExportWorkbook(xlsxPath, a); err != nil {
			return a, err
		}
		g.log.Info("报告已导出: " + xlsxPath)
	}

	if a.NegativeDeliveryRows > 0 {
		g.log.Warning(fmt.Sprintf("%d行送达时间早于下单时间", a.NegativeDeliveryRows))
	}
	g.log.Info(fmt.Sprintf("报告生成完成, 耗时 %v", time.Since(start)))
	return a, nil
}

// Invalidate 丢弃缓存, 下次生成时重新读取数据集
func (g *Generator) Invalidate() {
	g.cache.Invalidate(g.DatasetPath)
}
