/**
 * 日志
 * @description: 基于 logrus 的全局日志, CLI 默认只写 stderr 的 fatal 记录, 服务模式按配置输出并通过 lumberjack 轮转
 */

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"neorecon/internal/config"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// LoggerManager 持有一个配置好的 logrus 实例及其输出
type LoggerManager struct {
	logger *logrus.Logger
	closer io.Closer // 文件输出时为 lumberjack, 其余为 nil
}

// current 全局实例, 探测 goroutine 与初始化可能并发访问
var current atomic.Pointer[LoggerManager]

// New 按配置构造日志实例, 不影响全局实例
func New(cfg *config.LogConfig) (*LoggerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config cannot be nil")
	}

	l := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	l.SetLevel(level)
	l.SetReportCaller(cfg.Caller)

	out, closer, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)

	formatter, err := newFormatter(cfg.Format, closer == nil && out != io.Discard)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	l.SetFormatter(formatter)

	return &LoggerManager{logger: l, closer: closer}, nil
}

// InitLogger 构造日志实例并替换全局实例, 旧实例的文件输出会被关闭
func InitLogger(cfg *config.LogConfig) (*LoggerManager, error) {
	lm, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if old := current.Swap(lm); old != nil {
		old.Close()
	}
	return lm, nil
}

// Close 关闭文件输出
func (lm *LoggerManager) Close() error {
	if lm == nil || lm.closer == nil {
		return nil
	}
	return lm.closer.Close()
}

// Logger 底层 logrus 实例
func (lm *LoggerManager) Logger() *logrus.Logger {
	return lm.logger
}

func newFormatter(format string, color bool) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{
			TimestampFormat: timestampLayout,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyFunc: "function",
			},
		}, nil
	case "text", "":
		return &logrus.TextFormatter{
			TimestampFormat: timestampLayout,
			FullTimestamp:   true,
			ForceColors:     color,
			DisableColors:   !color,
		}, nil
	}
	return nil, fmt.Errorf("unsupported log format: %s", format)
}

// openOutput 解析输出目标
// file 输出在 debug 级别下同时写 stderr, 便于本地排查
func openOutput(cfg *config.LogConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "discard":
		return io.Discard, nil, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("log file path is required for file output")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if strings.EqualFold(cfg.Level, "debug") {
			return io.MultiWriter(os.Stderr, rotating), rotating, nil
		}
		return rotating, rotating, nil
	}
	return nil, nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
}

// active 当前全局 logrus 实例, 未初始化时返回 nil
func active() *logrus.Logger {
	if lm := current.Load(); lm != nil {
		return lm.logger
	}
	return nil
}

func Debugf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Debugf(format, args...)
	}
}

func Info(args ...interface{}) {
	if l := active(); l != nil {
		l.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Infof(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if l := active(); l != nil {
		l.Errorf(format, args...)
	}
}

// WithFields 带字段的条目, 未初始化时丢弃输出
func WithFields(fields logrus.Fields) *logrus.Entry {
	if l := active(); l != nil {
		return l.WithFields(fields)
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard.WithFields(fields)
}
