package logger

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL"`
	// Sink is a file path; empty means stdout.
	Sink string `yaml:"sink" envconfig:"LOG_SINK"`
}

// NewLogger builds a JSON logger. The returned func syncs the logger and closes the sink.
func NewLogger(cfg Log, name string) (*zap.Logger, func(), error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	ws := zapcore.Lock(os.Stdout)
	closeSink := func() {}
	if cfg.Sink != "" {
		sink, closeFn, err := zap.Open(cfg.Sink)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open log sink %q", cfg.Sink)
		}
		ws, closeSink = sink, closeFn
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, zap.NewAtomicLevelAt(cfg.LogLevel))
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).Named(name)
	return log, func() {
		_ = log.Sync()
		closeSink()
	}, nil
}
