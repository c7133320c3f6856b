package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-config", "conf", "-watch", "-out", "out"})
	require.NoError(t, err)
	assert.Equal(t, options{configDir: "conf", watch: true, outDir: "out"}, opts)

	opts, err = parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "./config", opts.configDir)
	assert.False(t, opts.watch)

	_, err = parseFlags([]string{"-unknown"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "orders_dataset.csv")
	require.NoError(t, os.WriteFile(dataset, []byte(`order_id,order_purchase_timestamp,order_delivered_customer_date,order_estimated_delivery_date
o1,2023-01-01 10:00:00,2023-01-05 14:00:00,2023-01-04 00:00:00
o2,2023-01-01 00:00:00,2023-01-03 00:00:00,2023-01-10 00:00:00
`), 0644))

	confDir := filepath.Join(dir, "config")
	require.NoError(t, os.Mkdir(confDir, 0755))
	writeJSON(t, filepath.Join(confDir, jsonFile), map[string]interface{}{
		"dataset_path": dataset,
		"output_dir":   filepath.Join(dir, "ignored"),
		"log_name":     filepath.Join(dir, "app.log"),
		"log_max_size": "1024 * 1024",
		"log_console":  true,
	})
	writeJSON(t, filepath.Join(confDir, dataJsonFile), map[string]interface{}{
		"histogram_bins": 5,
	})

	out := &bytes.Buffer{}
	outDir := filepath.Join(dir, "out")
	err := run(context.Background(), options{configDir: confDir, outDir: outDir}, out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Percentage of Late Deliveries: 50.00%")
	// 日志同时输出到终端
	assert.Contains(t, out.String(), "INFO")
	assert.FileExists(t, filepath.Join(outDir, "delivery_report.xlsx"))
	assert.FileExists(t, filepath.Join(outDir, "delivery_time_hist.png"))
	assert.NoDirExists(t, filepath.Join(dir, "ignored"))
	assert.FileExists(t, filepath.Join(dir, "app.log"))
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}
