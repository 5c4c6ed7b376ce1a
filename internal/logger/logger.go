package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 对 zap 的薄封装，统一 key-value 风格
type Logger struct {
	*zap.SugaredLogger
}

func New(verbose bool) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{zl.Sugar()}, nil
}

func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{l.SugaredLogger.With(args...)}
}

// NewNop 测试用的空日志器
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}
