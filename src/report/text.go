package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"OrderInsight/src/processor"
)

// formatFloat 与describe输出保持一致, NaN原样显示
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.6f", v)
}

// FormatPercent 百分比, 两位小数
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// RenderNotFound 数据集不存在时只输出警告
func RenderNotFound(w io.Writer, path string) error {
	_, err := fmt.Fprintf(w, "WARNING: dataset not found: %s\n"+
		"Please make sure the dataset is available to start the analysis.\n", path)
	return err
}

// RenderText 输出完整的文本报告
func RenderText(w io.Writer, source string, a *processor.Analysis) error {
	bw := &errWriter{w: w}

	fmt.Fprintln(bw, "E-commerce Delivery Report")
	fmt.Fprintf(bw, "source: %s\n", source)
	fmt.Fprintf(bw, "generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))

	section(bw, "Dataset Overview")
	fmt.Fprintf(bw, "rows: %d\n", a.TotalRows)
	tw := tabwriter.NewWriter(bw, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tmissing")
	for _, m := range a.Missing {
		fmt.Fprintf(tw, "%s\t%d\n", m.Column, m.Missing)
	}
	tw.Flush()

	section(bw, "Data Cleaning")
	fmt.Fprintf(bw, "rows before: %d, rows after: %d, dropped: %d\n",
		a.Clean.RowsBefore, a.Clean.RowsAfter, a.Clean.Dropped)

	section(bw, "Summary Statistics")
	tw = tabwriter.NewWriter(bw, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{""}
	for _, s := range a.Summaries {
		header = append(header, s.Column)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range summaryRows(a.Summaries) {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	tw.Flush()

	section(bw, "Distribution of Delivery Time")
	tw = tabwriter.NewWriter(bw, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "range (days)\tcount\t")
	for _, b := range a.Distribution {
		fmt.Fprintf(tw, "[%.2f, %.2f)\t%d\t%s\n", b.Lower, b.Upper, b.Count, bar(b.Count, a.Distribution))
	}
	tw.Flush()
	fmt.Fprintf(bw, "Mean: %.2f days\n", a.MeanDeliveryDays)

	section(bw, "Late Deliveries Analysis")
	fmt.Fprintf(bw, "Percentage of Late Deliveries: %s (%d of %d)\n",
		FormatPercent(a.LatePercentage), a.LateRows, a.Clean.RowsAfter)
	if a.NegativeDeliveryRows > 0 {
		fmt.Fprintf(bw, "anomaly: %d rows delivered before purchase\n", a.NegativeDeliveryRows)
	}

	return bw.err
}

// summaryRows 转置为 count/mean/std/min/25%/50%/75%/max 八行
func summaryRows(sums []processor.Summary) [][]string {
	labels := []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	rows := make([][]string, len(labels))
	for i, l := range labels {
		rows[i] = []string{l}
	}
	for _, s := range sums {
		vals := []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
		for i, v := range vals {
			rows[i] = append(rows[i], formatFloat(v))
		}
	}
	return rows
}

// bar 按最大频数缩放的字符条
func bar(count int, bins []processor.Bin) string {
	const width = 40
	top := 0
	for _, b := range bins {
		if b.Count > top {
			top = b.Count
		}
	}
	if top == 0 || count == 0 {
		return ""
	}
	n := count * width / top
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

// errWriter 记录第一次写入错误
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
