// reader.go
package file

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"OrderInsight/src/config"
	"OrderInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrDatasetNotFound 数据集文件不存在或无法读取
var ErrDatasetNotFound = errors.New("dataset not found")

const Number string = "^[0-9]+(\\.[0-9]+)?$"

var numberRe = regexp.MustCompile(Number)

// Options 加载数据集的参数
type Options struct {
	TimeColumns []string // 需要解析为时间的列
	TimeLayouts []string // 可接受的时间格式
	NaNValues   []string // 视为缺失值的文本
	Delimiter   rune     // 分隔符
	Encoding    string   // 文本编码
	SheetName   string   // xlsx工作表, 为空时取第一个
	HeaderRow   int      // xlsx标题行
}

// OptionsFromConfig 由数据配置生成加载参数
func OptionsFromConfig(dcfg *config.DataConfig) Options {
	return Options{
		TimeColumns: dcfg.TimeColumns(),
		TimeLayouts: dcfg.TimeLayouts,
		NaNValues:   dcfg.NaNValues,
		Delimiter:   dcfg.DelimiterRune(),
		Encoding:    dcfg.Encoding,
		SheetName:   dcfg.SheetName,
		HeaderRow:   dcfg.HeaderRow,
	}
}

// Dataset 已加载的订单数据
type Dataset struct {
	Path        string
	ModTime     time.Time
	Size        int64
	Frame       dataframe.DataFrame // 时间列已标准化为 utils.TimeLayout, 缺失为NA
	TimeColumns []string
}

// timeAt 读取时间列第row行的值, 缺失时 ok=false
func (d *Dataset) timeAt(col string, row int) (time.Time, bool) {
	if !utils.HasColumn(d.Frame, col) || row < 0 || row >= d.Frame.Nrow() {
		return time.Time{}, false
	}
	t, ok, err := utils.ParseTime(d.Frame.Col(col).Elem(row))
	if err != nil {
		return time.Time{}, false
	}
	return t, ok
}

// LoadDataset 按扩展名读取CSV或XLSX, 并解析时间列
func LoadDataset(path string, opts Options) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDatasetNotFound, path)
	}

	var (
		df          dataframe.DataFrame
		excelSerial bool
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		df, err = ReadXLSXToDataFrame(path, opts)
		excelSerial = true
	default:
		df, err = ReadCSVToDataFrame(path, opts)
	}
	if err != nil {
		return nil, err
	}

	df, err = ProcessTimeColumns(df, opts, excelSerial)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Path:        path,
		ModTime:     info.ModTime(),
		Size:        info.Size(),
		Frame:       df,
		TimeColumns: opts.TimeColumns,
	}, nil
}

// ReadCSVToDataFrame 读取带标题行的分隔文本, 所有列按字符串加载
func ReadCSVToDataFrame(path string, opts Options) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %v", ErrDatasetNotFound, err)
	}
	defer f.Close()

	r, err := decodeReader(f, opts.Encoding)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("读取CSV失败 %s: %w", path, err)
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	nanValues := opts.NaNValues
	if nanValues == nil {
		nanValues = config.DefaultNaNValues
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
		dataframe.WithDelimiter(delimiter),
	)
	if df.Err != nil {
		// 只有标题行时返回空表
		if headers, ok := headerOnly(data, delimiter); ok {
			return emptyFrame(headers), nil
		}
		return dataframe.DataFrame{}, fmt.Errorf("解析CSV失败 %s: %w", path, df.Err)
	}
	return df, nil
}

// headerOnly 判断内容是否只有标题行
func headerOnly(data []byte, delimiter rune) ([]string, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil || len(records) != 1 || len(records[0]) == 0 {
		return nil, false
	}
	return records[0], true
}

// emptyFrame 按列名生成0行的字符串表
func emptyFrame(headers []string) dataframe.DataFrame {
	columns := make([]series.Series, len(headers))
	for i, name := range headers {
		columns[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(columns...)
}

// decodeReader 按配置的编码转换为UTF-8
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "gbk", "gb2312":
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("不支持的编码: %s", encoding)
	}
}

func ReadXLSXToDataFrame(filePath string, opts Options) (dataframe.DataFrame, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: xlsx open file: %v", ErrDatasetNotFound, err)
	}

	// 2. 获取工作表
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表: %s", filePath)
	}
	sheet := xlFile.Sheets[0]
	if opts.SheetName != "" {
		s, ok := xlFile.Sheet[opts.SheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("工作表不存在: %s", opts.SheetName)
		}
		sheet = s
	}

	// 3. 转换为Gota DataFrame
	return convertSheetToDataFrame(sheet, opts)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
func convertSheetToDataFrame(sheet *xlsx.Sheet, opts Options) (dataframe.DataFrame, error) {
	if len(sheet.Rows) <= opts.HeaderRow {
		return dataframe.DataFrame{}, fmt.Errorf("工作表%s没有标题行", sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[opts.HeaderRow].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("工作表%s标题行为空", sheet.Name)
	}

	nanValues := opts.NaNValues
	if nanValues == nil {
		nanValues = config.DefaultNaNValues
	}

	dataRows := sheet.Rows[opts.HeaderRow+1:]
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(dataRows))
	}

	for _, row := range dataRows {
		if row == nil || isEmptyRow(row) {
			continue
		}
		for i := range headers {
			value := ""
			if i < len(row.Cells) && row.Cells[i] != nil {
				value = row.Cells[i].Value
			}
			if utils.Contains(nanValues, value) {
				value = "NaN"
			}
			columns[i] = append(columns[i], value)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	df := dataframe.New(seriesList...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("转换为dataframe失败: %w", df.Err)
	}
	return df, nil
}

func isEmptyRow(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if cell != nil && strings.TrimSpace(cell.Value) != "" {
			return false
		}
	}
	return true
}

// ProcessTimeColumns 将时间列统一为 utils.TimeLayout 格式
// 无法解析的时间视为数据错误直接返回
func ProcessTimeColumns(df dataframe.DataFrame, opts Options, excelSerial bool) (dataframe.DataFrame, error) {
	if missing := utils.MissingColumns(df, opts.TimeColumns...); len(missing) > 0 {
		return df, fmt.Errorf("数据集缺少必需的列: %s", strings.Join(missing, ", "))
	}

	layouts := opts.TimeLayouts
	if len(layouts) == 0 {
		layouts = config.DefaultTimeLayouts
	}

	for _, col := range opts.TimeColumns {
		s := df.Col(col)
		values := make([]string, s.Len())
		for i := 0; i < s.Len(); i++ {
			e := s.Elem(i)
			if e.IsNA() {
				values[i] = "NaN"
				continue
			}
			t, err := parseTimestamp(e.String(), layouts, excelSerial)
			if err != nil {
				return df, fmt.Errorf("列%s第%d行: %w", col, i+1, err)
			}
			values[i] = t.Format(utils.TimeLayout)
		}

		df = df.Mutate(series.New(values, series.String, col))
		if df.Err != nil {
			return df, fmt.Errorf("更新时间列%s失败: %w", col, df.Err)
		}
	}

	return df, nil
}

func parseTimestamp(raw string, layouts []string, excelSerial bool) (time.Time, error) {
	t, err := utils.ParseTimeLayouts(raw, layouts)
	if err == nil {
		return t, nil
	}
	if excelSerial && numberRe.MatchString(strings.TrimSpace(raw)) {
		return excelToTime(raw)
	}
	return time.Time{}, err
}

// excel时间类型转time.Time类型
func excelToTime(raw string) (time.Time, error) {
	excelDays, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, err
	}
	t, err := excelize.ExcelDateToTime(excelDays, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法转换Excel日期 %s: %w", raw, err)
	}
	return t.UTC(), nil
}
