package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesFileAndMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	var console bytes.Buffer

	logger, err := NewLogger(path, &console)
	require.NoError(t, err)

	logger.Info("报告生成完成")
	logger.Warning("数据集不存在")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: 报告生成完成")
	assert.Contains(t, string(data), "WARNING: 数据集不存在")
	assert.Equal(t, string(data), console.String())
}

func TestLoggerRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	logger, err := NewLogger(path)
	require.NoError(t, err)
	defer logger.Close()
	require.NoError(t, logger.SetMaxSize("4 * 16"))

	for i := 0; i < 5; i++ {
		logger.Debug(strings.Repeat("x", 40))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Greater(t, len(entries), 1)
}

func TestLoggerReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	logger, err := NewLogger(path)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("before")
	require.NoError(t, os.Rename(path, path+".old"))
	require.NoError(t, logger.Reopen(""))
	logger.Info("after")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after")
	assert.NotContains(t, string(data), "before")
}

func TestEval(t *testing.T) {
	n, err := eval("10 * 1024 * 1024")
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024*1024), n)

	_, err = eval("ten megabytes")
	assert.Error(t, err)
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "FATAL", FATAL.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
