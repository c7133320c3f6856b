package processor

import (
	"math"
	"sort"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary 描述性统计, 与常见的describe输出一致
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64 // 样本标准差
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Bin 直方图的一个分箱, 除最后一个外为左闭右开
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Values 取出非缺失的数值
func Values(s series.Series) []float64 {
	var out []float64
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.Float()
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Describe 计算一列的描述性统计, 缺失值不计入
func Describe(s series.Series) Summary {
	values := Values(s)
	sum := Summary{Column: s.Name, Count: len(values)}

	nan := math.NaN()
	if len(values) == 0 {
		sum.Mean, sum.Std, sum.Min, sum.Q25, sum.Q50, sum.Q75, sum.Max = nan, nan, nan, nan, nan, nan, nan
		return sum
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum.Mean = stat.Mean(sorted, nil)
	sum.Std = nan
	if len(sorted) > 1 {
		sum.Std = stat.StdDev(sorted, nil)
	}
	sum.Min = floats.Min(sorted)
	sum.Max = floats.Max(sorted)
	sum.Q25 = quantile(sorted, 0.25)
	sum.Q50 = quantile(sorted, 0.50)
	sum.Q75 = quantile(sorted, 0.75)
	return sum
}

// quantile 线性插值分位数, 位置为 p*(n-1)
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	frac := pos - lo
	return sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*frac
}

// Mean 平均值, 空数据返回NaN
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Distribution 等宽分箱的频数分布
func Distribution(values []float64, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	dividers := append([]float64(nil), edges...)
	// 最后一个分箱包含最大值
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lower: edges[i], Upper: edges[i+1], Count: int(counts[i])}
	}
	return out
}

// LatePercentage 延迟天数大于0的行数及占比(百分数)
func LatePercentage(late []float64) (int, float64) {
	if len(late) == 0 {
		return 0, 0
	}
	n := 0
	for _, v := range late {
		if v > 0 {
			n++
		}
	}
	return n, float64(n) / float64(len(late)) * 100
}
