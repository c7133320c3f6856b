// delivery.go
package processor

import (
	"fmt"
	"strings"
	"time"

	"OrderInsight/src/config"
	"OrderInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const day = 24 * time.Hour

// DeliveryProcessor 计算配送时效指标
type DeliveryProcessor struct {
	Purchase     string // 下单时间列
	Delivered    string // 实际送达时间列
	Estimated    string // 预计送达时间列
	DeliveryTime string // 派生: 配送天数
	LateDelivery string // 派生: 延迟天数
	CleanScope   string // required / all
	Bins         int    // 直方图分箱数
}

func NewDeliveryProcessor(dcfg *config.DataConfig) *DeliveryProcessor {
	return &DeliveryProcessor{
		Purchase:     dcfg.GetColumn(config.ColPurchase),
		Delivered:    dcfg.GetColumn(config.ColDelivered),
		Estimated:    dcfg.GetColumn(config.ColEstimated),
		DeliveryTime: dcfg.GetColumn(config.ColDeliveryTime),
		LateDelivery: dcfg.GetColumn(config.ColLateDelivery),
		CleanScope:   dcfg.CleanScope,
		Bins:         dcfg.HistogramBins,
	}
}

// ColumnMissing 单列缺失值数量
type ColumnMissing struct {
	Column  string
	Missing int
}

// CleanResult 清洗前后的行数
type CleanResult struct {
	RowsBefore int
	RowsAfter  int
	Dropped    int
}

// Analysis 一次报告所需的全部结果
type Analysis struct {
	TotalRows            int
	Missing              []ColumnMissing // 清洗前
	Clean                CleanResult
	Summaries            []Summary // 配送天数, 延迟天数
	Distribution         []Bin     // 配送天数分布
	DeliveryDays         []float64 // 清洗后的配送天数, 用于绘图
	MeanDeliveryDays     float64
	LateRows             int
	LatePercentage       float64
	NegativeDeliveryRows int // 送达早于下单的行
	Cleaned              dataframe.DataFrame
}

// floorDays 按整天向下取整(向负无穷方向)
func floorDays(d time.Duration) int {
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}

// DeriveMetrics 添加配送天数与延迟天数两列
// 配送天数在输入缺失时为NA, 延迟天数小于0或无法计算时记为0
func (p *DeliveryProcessor) DeriveMetrics(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if missing := utils.MissingColumns(df, p.Purchase, p.Delivered, p.Estimated); len(missing) > 0 {
		return df, fmt.Errorf("缺少时间列: %s", strings.Join(missing, ", "))
	}

	purchase := df.Col(p.Purchase)
	delivered := df.Col(p.Delivered)
	estimated := df.Col(p.Estimated)

	deliveryTime := make([]interface{}, df.Nrow())
	lateDelivery := make([]interface{}, df.Nrow())

	for i := 0; i < df.Nrow(); i++ {
		purchaseAt, okP, err := utils.ParseTime(purchase.Elem(i))
		if err != nil {
			return df, fmt.Errorf("第%d行下单时间: %w", i+1, err)
		}
		deliveredAt, okD, err := utils.ParseTime(delivered.Elem(i))
		if err != nil {
			return df, fmt.Errorf("第%d行送达时间: %w", i+1, err)
		}
		estimatedAt, okE, err := utils.ParseTime(estimated.Elem(i))
		if err != nil {
			return df, fmt.Errorf("第%d行预计送达时间: %w", i+1, err)
		}

		if okP && okD {
			deliveryTime[i] = floorDays(deliveredAt.Sub(purchaseAt))
		}
		// 无法计算时记为0, 延迟天数没有缺失值
		late := 0
		if okD && okE {
			late = floorDays(deliveredAt.Sub(estimatedAt))
			if late < 0 {
				late = 0
			}
		}
		lateDelivery[i] = late
	}

	df = df.Mutate(series.New(deliveryTime, series.Int, p.DeliveryTime))
	df = df.Mutate(series.New(lateDelivery, series.Int, p.LateDelivery))
	if df.Err != nil {
		return df, fmt.Errorf("添加派生列失败: %w", df.Err)
	}
	return df, nil
}

// MissingCounts 统计每列缺失值数量, 顺序与列顺序一致
func MissingCounts(df dataframe.DataFrame) []ColumnMissing {
	counts := make([]ColumnMissing, 0, df.Ncol())
	for _, name := range df.Names() {
		n := 0
		for _, na := range df.Col(name).IsNaN() {
			if na {
				n++
			}
		}
		counts = append(counts, ColumnMissing{Column: name, Missing: n})
	}
	return counts
}

// requiredColumns 清洗时检查的列
func (p *DeliveryProcessor) requiredColumns(df dataframe.DataFrame) []string {
	if p.CleanScope == config.CleanScopeAll {
		return df.Names()
	}
	cols := []string{p.Purchase, p.Delivered, p.Estimated}
	for _, derived := range []string{p.DeliveryTime, p.LateDelivery} {
		if utils.HasColumn(df, derived) {
			cols = append(cols, derived)
		}
	}
	return cols
}

// Clean 删除必需列中存在缺失值的行
func (p *DeliveryProcessor) Clean(df dataframe.DataFrame) (dataframe.DataFrame, CleanResult) {
	result := CleanResult{RowsBefore: df.Nrow()}
	if df.Nrow() == 0 {
		return df, result
	}

	notNA := func(el series.Element) bool { return !el.IsNA() }

	var filters []dataframe.F
	for _, col := range p.requiredColumns(df) {
		filters = append(filters, dataframe.F{
			Colname:    col,
			Comparator: series.CompFunc,
			Comparando: notNA,
		})
	}

	cleaned := df.FilterAggregation(dataframe.And, filters...)
	result.RowsAfter = cleaned.Nrow()
	result.Dropped = result.RowsBefore - result.RowsAfter
	return cleaned, result
}

// Analyze 派生指标, 统计缺失值, 清洗并计算汇总统计
func (p *DeliveryProcessor) Analyze(df dataframe.DataFrame) (*Analysis, error) {
	derived, err := p.DeriveMetrics(df)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		TotalRows: derived.Nrow(),
		Missing:   MissingCounts(derived),
	}

	cleaned, result := p.Clean(derived)
	if cleaned.Err != nil {
		return nil, fmt.Errorf("清洗数据失败: %w", cleaned.Err)
	}
	a.Clean = result
	a.Cleaned = cleaned

	deliveryCol := cleaned.Col(p.DeliveryTime)
	lateCol := cleaned.Col(p.LateDelivery)

	a.Summaries = []Summary{Describe(deliveryCol), Describe(lateCol)}
	a.DeliveryDays = Values(deliveryCol)
	a.Distribution = Distribution(a.DeliveryDays, p.Bins)
	a.MeanDeliveryDays = Mean(a.DeliveryDays)
	a.LateRows, a.LatePercentage = LatePercentage(Values(lateCol))

	for _, v := range a.DeliveryDays {
		if v < 0 {
			a.NegativeDeliveryRows++
		}
	}

	return a, nil
}
