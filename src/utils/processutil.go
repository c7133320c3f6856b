package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// TimeLayout 时间列标准化后的格式
const TimeLayout = "2006-01-02 15:04:05"

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// MissingColumns 返回df中不存在的列
func MissingColumns(df dataframe.DataFrame, names ...string) []string {
	var missing []string
	for _, name := range names {
		if !HasColumn(df, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// ParseTime 解析标准化后的时间元素, 缺失值返回 ok=false
func ParseTime(s series.Element) (t time.Time, ok bool, err error) {
	if s.IsNA() || s.String() == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(TimeLayout, s.String())
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ParseTimeLayouts 依次尝试多种格式解析时间
func ParseTimeLayouts(str string, layouts []string) (time.Time, error) {
	str = strings.TrimSpace(str)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析时间 %q", str)
}

// WriteSheet 将DataFrame写入xlsx的一个工作表, 第一行为列名
func WriteSheet(f *excelize.File, sheetName string, df dataframe.DataFrame) error {
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("写入列名失败: %w", err)
		}
	}

	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, cellValue(col.Elem(rowIdx))); err != nil {
				return fmt.Errorf("写入单元格%s失败: %w", cell, err)
			}
		}
	}
	return nil
}

// cellValue 缺失值写空单元格, 数值列保留数值类型
func cellValue(e series.Element) interface{} {
	if e.IsNA() {
		return nil
	}
	switch e.Type() {
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return e.String()
		}
		return v
	case series.Float:
		return e.Float()
	case series.Bool:
		v, err := e.Bool()
		if err != nil {
			return e.String()
		}
		return v
	default:
		return e.String()
	}
}
