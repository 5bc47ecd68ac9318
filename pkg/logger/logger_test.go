package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.log")

	log, closeLog, err := NewLogger(Log{LogLevel: zapcore.InfoLevel, Sink: path}, "test")
	require.NoError(t, err)
	log.Info("hello")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"hello"`)
	require.Contains(t, string(data), `"logger":"test"`)
}

func TestNewLogger_BadSink(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "missing", "library.log")

	log, closeLog, err := NewLogger(Log{Sink: sink}, "test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "open log sink")
	require.Nil(t, log)
	require.Nil(t, closeLog)
}
