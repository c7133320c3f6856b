package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// 列名配置的键
const (
	ColPurchase     = "purchase"
	ColDelivered    = "delivered"
	ColEstimated    = "estimated"
	ColDeliveryTime = "delivery_time"
	ColLateDelivery = "late_delivery"
)

// 清洗范围
const (
	CleanScopeRequired = "required" // 只检查派生指标用到的列
	CleanScopeAll      = "all"      // 任意列为空即删除整行
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DatasetPath string `json:"dataset_path"` // 订单数据集路径(相对路径)
	OutputDir   string `json:"output_dir"`   // 报告输出目录
	LogName     string `json:"log_name"`     // 日志文件名
	LogMaxSize  string `json:"log_max_size"` // 日志轮转大小, 例如 "10 * 1024 * 1024"
	LogConsole  bool   `json:"log_console"`  // 日志是否同时输出到终端

	Report struct {
		HistogramPNG string `json:"histogram_png"` // 直方图文件名
		Workbook     string `json:"workbook"`      // 导出的xlsx文件名
	} `json:"report"`

	Watch struct {
		Enabled  bool     `json:"enabled"`  // 是否监控数据集变化
		Refresh  string   `json:"refresh"`  // 定时刷新, cron表达式, 如 "@every 10m"
		Debounce Duration `json:"debounce"` // 同一文件连续写入的合并间隔
	} `json:"watch"`
}

// DataConfig 数据集相关的配置
type DataConfig struct {
	Columns       map[string]string `json:"columns"`        // 逻辑列名 -> 数据集实际列名
	TimeLayouts   []string          `json:"time_layouts"`   // 时间列可接受的格式
	NaNValues     []string          `json:"nan_values"`     // 视为缺失值的文本
	Delimiter     string            `json:"delimiter"`      // 分隔符
	Encoding      string            `json:"encoding"`       // utf-8 / latin1 / gbk
	SheetName     string            `json:"sheet_name"`     // xlsx数据集的工作表
	HeaderRow     int               `json:"header_row"`     // xlsx标题行(从0开始)
	CleanScope    string            `json:"clean_scope"`    // required / all
	HistogramBins int               `json:"histogram_bins"` // 直方图分箱数
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

var defaultColumns = map[string]string{
	ColPurchase:     "order_purchase_timestamp",
	ColDelivered:    "order_delivered_customer_date",
	ColEstimated:    "order_estimated_delivery_date",
	ColDeliveryTime: "delivery_time_days",
	ColLateDelivery: "late_delivery_days",
}

// DefaultTimeLayouts 默认支持的时间格式, 按顺序尝试
var DefaultTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
}

// DefaultNaNValues 默认缺失值标记
var DefaultNaNValues = []string{"", "NA", "NaN", "nan", "NaT", "null", "NULL", "<nil>"}

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyDefaults()
	dcfg.applyDefaults()
	if err := dcfg.validate(); err != nil {
		return nil, nil, err
	}

	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Default 返回全部使用默认值的配置, 找不到配置文件时使用
func Default() (*Config, *DataConfig) {
	cfg := &Config{}
	dcfg := &DataConfig{}
	cfg.applyDefaults()
	dcfg.applyDefaults()
	return cfg, dcfg
}

func (c *Config) applyDefaults() {
	if c.DatasetPath == "" {
		c.DatasetPath = "orders_dataset.csv"
	}
	if c.OutputDir == "" {
		c.OutputDir = "report"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
	if c.Report.HistogramPNG == "" {
		c.Report.HistogramPNG = "delivery_time_hist.png"
	}
	if c.Report.Workbook == "" {
		c.Report.Workbook = "delivery_report.xlsx"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(time.Second)
	}
}

func (dc *DataConfig) applyDefaults() {
	if dc.Columns == nil {
		dc.Columns = make(map[string]string, len(defaultColumns))
	}
	for k, v := range defaultColumns {
		if dc.Columns[k] == "" {
			dc.Columns[k] = v
		}
	}
	if len(dc.TimeLayouts) == 0 {
		dc.TimeLayouts = append([]string(nil), DefaultTimeLayouts...)
	}
	if dc.NaNValues == nil {
		dc.NaNValues = append([]string(nil), DefaultNaNValues...)
	}
	if dc.Delimiter == "" {
		dc.Delimiter = ","
	}
	if dc.Encoding == "" {
		dc.Encoding = "utf-8"
	}
	if dc.CleanScope == "" {
		dc.CleanScope = CleanScopeRequired
	}
	if dc.HistogramBins <= 0 {
		dc.HistogramBins = 30
	}
}

func (dc *DataConfig) validate() error {
	if len([]rune(dc.Delimiter)) != 1 {
		return fmt.Errorf("delimiter必须是单个字符: %q", dc.Delimiter)
	}
	switch dc.CleanScope {
	case CleanScopeRequired, CleanScopeAll:
	default:
		return fmt.Errorf("未知的clean_scope: %s", dc.CleanScope)
	}
	if dc.HeaderRow < 0 {
		return fmt.Errorf("header_row不能为负数: %d", dc.HeaderRow)
	}
	return nil
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// GetColumn 返回逻辑列名对应的数据集列名, 未配置时返回默认列名
func (dc *DataConfig) GetColumn(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if name, ok := dc.Columns[key]; ok && name != "" {
		return name
	}
	return defaultColumns[key]
}

func (dc *DataConfig) SetColumn(key, name string) {
	mu.Lock()
	defer mu.Unlock()
	if dc.Columns == nil {
		dc.Columns = make(map[string]string)
	}
	dc.Columns[key] = name
}

// TimeColumns 需要解析为时间的三列
func (dc *DataConfig) TimeColumns() []string {
	return []string{
		dc.GetColumn(ColPurchase),
		dc.GetColumn(ColDelivered),
		dc.GetColumn(ColEstimated),
	}
}

// DelimiterRune 分隔符(已校验为单字符)
func (dc *DataConfig) DelimiterRune() rune {
	r := []rune(dc.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}
