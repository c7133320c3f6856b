package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigs(t *testing.T, cfg, dcfg string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfg), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte(dcfg), 0644))
	return dir
}

func TestLoadConfigs(t *testing.T) {
	dir := writeConfigs(t,
		`{"dataset_path": "data/orders.csv", "log_name": "x.log", "watch": {"enabled": true, "refresh": "@every 5m", "debounce": "2s"}}`,
		`{"columns": {"delivered": "delivered_at"}, "delimiter": ";", "histogram_bins": 12}`,
	)

	cfg, dcfg, err := loadConfigs(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, "data/orders.csv", cfg.DatasetPath)
	assert.Equal(t, "x.log", cfg.LogName)
	assert.Equal(t, "report", cfg.OutputDir)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "@every 5m", cfg.Watch.Refresh)
	assert.Equal(t, Duration(2*time.Second), cfg.Watch.Debounce)

	assert.Equal(t, "delivered_at", dcfg.GetColumn(ColDelivered))
	assert.Equal(t, "order_purchase_timestamp", dcfg.GetColumn(ColPurchase))
	assert.Equal(t, ';', dcfg.DelimiterRune())
	assert.Equal(t, 12, dcfg.HistogramBins)
	assert.Equal(t, CleanScopeRequired, dcfg.CleanScope)
	assert.Equal(t, DefaultTimeLayouts, dcfg.TimeLayouts)
}

func TestLoadConfigsErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := loadConfigs(t.TempDir(), "config.json", "dataconfig.json")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("both broken", func(t *testing.T) {
		dir := writeConfigs(t, `{`, `[`)
		_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "解析Config失败")
		assert.Contains(t, err.Error(), "解析DataConfig失败")
	})

	t.Run("bad delimiter", func(t *testing.T) {
		dir := writeConfigs(t, `{}`, `{"delimiter": "::"}`)
		_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
		assert.Error(t, err)
	})

	t.Run("unknown clean scope", func(t *testing.T) {
		dir := writeConfigs(t, `{}`, `{"clean_scope": "impute"}`)
		_, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
		assert.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	cfg, dcfg := Default()
	assert.Equal(t, "orders_dataset.csv", cfg.DatasetPath)
	assert.Equal(t, 30, dcfg.HistogramBins)
	assert.Equal(t, []string{
		"order_purchase_timestamp",
		"order_delivered_customer_date",
		"order_estimated_delivery_date",
	}, dcfg.TimeColumns())
	assert.Contains(t, dcfg.NaNValues, "")
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, Duration(90*time.Second), d)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
}

func TestSetColumn(t *testing.T) {
	_, dcfg := Default()
	dcfg.SetColumn(ColEstimated, "eta")
	assert.Equal(t, "eta", dcfg.GetColumn(ColEstimated))
}
