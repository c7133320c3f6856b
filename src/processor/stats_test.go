package processor

import (
	"math"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s := series.New([]interface{}{1, 2, nil, 3, 4}, series.Int, "days")
	sum := Describe(s)

	assert.Equal(t, "days", sum.Column)
	assert.Equal(t, 4, sum.Count)
	assert.InDelta(t, 2.5, sum.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(5.0/3.0), sum.Std, 1e-9)
	assert.Equal(t, 1.0, sum.Min)
	assert.InDelta(t, 1.75, sum.Q25, 1e-9)
	assert.InDelta(t, 2.5, sum.Q50, 1e-9)
	assert.InDelta(t, 3.25, sum.Q75, 1e-9)
	assert.Equal(t, 4.0, sum.Max)
}

func TestDescribeSmall(t *testing.T) {
	one := Describe(series.New([]int{7}, series.Int, "x"))
	assert.Equal(t, 1, one.Count)
	assert.Equal(t, 7.0, one.Mean)
	assert.True(t, math.IsNaN(one.Std))
	assert.Equal(t, 7.0, one.Q25)
	assert.Equal(t, 7.0, one.Q75)

	empty := Describe(series.New([]interface{}{nil}, series.Int, "x"))
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
	assert.True(t, math.IsNaN(empty.Max))
}

func TestDistribution(t *testing.T) {
	values := []float64{0, 1, 1, 2, 3, 4, 10}
	bins := Distribution(values, 5)
	require.Len(t, bins, 5)

	assert.Equal(t, 0.0, bins[0].Lower)
	assert.Equal(t, 10.0, bins[4].Upper)
	assert.Equal(t, Bin{Lower: 0, Upper: 2, Count: 3}, bins[0])
	assert.Equal(t, 2, bins[1].Count)
	// 最大值落在最后一个分箱
	assert.Equal(t, 1, bins[4].Count)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(values), total)
}

func TestDistributionSingleValue(t *testing.T) {
	bins := Distribution([]float64{3, 3, 3}, 2)
	require.Len(t, bins, 2)
	assert.Equal(t, 2.5, bins[0].Lower)
	assert.Equal(t, 3.5, bins[1].Upper)
	assert.Equal(t, 3, bins[0].Count+bins[1].Count)

	assert.Nil(t, Distribution(nil, 10))
	assert.Nil(t, Distribution([]float64{1}, 0))
}

func TestLatePercentage(t *testing.T) {
	late := []float64{0, 0, 1, 0, 5, 0, 0, 2, 0, 0}
	n, pct := LatePercentage(late)
	assert.Equal(t, 3, n)
	assert.InDelta(t, 30.0, pct, 1e-9)

	n, pct = LatePercentage(nil)
	assert.Zero(t, n)
	assert.Zero(t, pct)
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
	assert.True(t, math.IsNaN(Mean(nil)))
}
