package xlog_test

import (
	"os"
	"path/filepath"
	"testing"

	"trademan/pkg/xlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	xlog.Init("test", filepath.Join(t.TempDir(), "xlog-test.log"))
	logger := xlog.GetLogger()
	require.NotNil(t, logger)

	logger.SetLevel("TRACE")
	assert.Equal(t, xlog.TRACE, logger.GetLevel())

	logger.Trace("this is trace")
	logger.Debug("this is debug")
	logger.Info("this is info")
	logger.Warning("this is warning")
	logger.Error("this is error")

	child := logger.With("exchange", "helper")
	child.Infof("child shares level %d", child.GetLevel())

	logger.SetLevel("ERROR")
	assert.Equal(t, xlog.ERROR, child.GetLevel())
	logger.SetLevel("INFO")
}

func TestFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fields.log")
	xlog.Init("test", logPath)
	logger := xlog.GetLogger()
	logger.SetLevel("DEBUG")
	defer logger.SetLevel("INFO")

	logger.With("exchange", "helper").Debugf("order %d open", 7)
	logger.Warning("plain warning")
	require.Nil(t, xlog.Zap.Sync())

	b, err := os.ReadFile(logPath)
	require.Nil(t, err)
	out := string(b)
	assert.Contains(t, out, `"msg":"[DBG] order 7 open"`)
	assert.Contains(t, out, `"exchange":"helper"`)
	assert.Contains(t, out, `"file":`)
	assert.Contains(t, out, `"msg":"[WRN] plain warning"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, xlog.TRACE, xlog.ParseLevel("trc"))
	assert.Equal(t, xlog.WARNING, xlog.ParseLevel("warn"))
	assert.Equal(t, xlog.FATAL, xlog.ParseLevel("F"))
	assert.Equal(t, xlog.INFO, xlog.ParseLevel(""))
	assert.Equal(t, xlog.INFO, xlog.ParseLevel("bogus"))
}
