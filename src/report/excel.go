package report

import (
	"fmt"
	"math"

	"OrderInsight/src/processor"
	"OrderInsight/src/utils"

	"github.com/xuri/excelize/v2"
)

// 工作簿中的工作表
const (
	SheetMissing      = "missing_values"
	SheetSummary      = "summary"
	SheetDistribution = "distribution"
	SheetCleaned      = "cleaned_orders"
)

// ExportWorkbook 将分析结果导出为xlsx
func ExportWorkbook(path string, a *processor.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMissing); err != nil {
		return fmt.Errorf("重命名工作表失败: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetDistribution, SheetCleaned} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("创建工作表%s失败: %w", name, err)
		}
	}

	rows := [][]interface{}{{"column", "missing"}}
	for _, m := range a.Missing {
		rows = append(rows, []interface{}{m.Column, m.Missing})
	}
	if err := writeRows(f, SheetMissing, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"statistic"}}
	for _, s := range a.Summaries {
		rows[0] = append(rows[0], s.Column)
	}
	for _, r := range summaryRows(a.Summaries) {
		row := []interface{}{r[0]}
		for _, s := range a.Summaries {
			row = append(row, statValue(s, r[0]))
		}
		rows = append(rows, row)
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"rows_before_cleaning", a.Clean.RowsBefore},
		[]interface{}{"rows_after_cleaning", a.Clean.RowsAfter},
		[]interface{}{"mean_delivery_days", numberOrNil(a.MeanDeliveryDays)},
		[]interface{}{"late_delivery_pct", FormatPercent(a.LatePercentage)},
		[]interface{}{"negative_delivery_rows", a.NegativeDeliveryRows},
	)
	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"lower", "upper", "count"}}
	for _, b := range a.Distribution {
		rows = append(rows, []interface{}{b.Lower, b.Upper, b.Count})
	}
	if err := writeRows(f, SheetDistribution, rows); err != nil {
		return err
	}

	if err := utils.WriteSheet(f, SheetCleaned, a.Cleaned); err != nil {
		return fmt.Errorf("写入清洗后数据失败: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("写入工作表%s失败: %w", sheet, err)
		}
	}
	return nil
}

func statValue(s processor.Summary, label string) interface{} {
	switch label {
	case "count":
		return s.Count
	case "mean":
		return numberOrNil(s.Mean)
	case "std":
		return numberOrNil(s.Std)
	case "min":
		return numberOrNil(s.Min)
	case "25%":
		return numberOrNil(s.Q25)
	case "50%":
		return numberOrNil(s.Q50)
	case "75%":
		return numberOrNil(s.Q75)
	case "max":
		return numberOrNil(s.Max)
	}
	return nil
}

// numberOrNil NaN写为空单元格
func numberOrNil(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
