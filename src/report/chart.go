package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData 没有可绘制的数据
var ErrNoData = errors.New("no data to plot")

var (
	skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	red     = color.RGBA{R: 255, A: 255}
)

// WriteHistogram 绘制配送天数直方图, 并用红色虚线标出平均值
func WriteHistogram(path string, values []float64, bins int, mean float64) error {
	if len(values) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Distribution of Delivery Time"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Delivery Time (days)"
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("创建直方图失败: %w", err)
	}
	h.FillColor = skyBlue
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		if b.Weight > top {
			top = b.Weight
		}
	}

	meanLine, err := plotter.NewLine(plotter.XYs{{X: mean, Y: 0}, {X: mean, Y: top}})
	if err != nil {
		return fmt.Errorf("创建平均线失败: %w", err)
	}
	meanLine.LineStyle.Color = red
	meanLine.LineStyle.Width = vg.Points(2)
	meanLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(meanLine)

	p.Legend.Add(fmt.Sprintf("Mean: %.2f days", mean), meanLine)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("保存直方图失败: %w", err)
	}
	return nil
}
