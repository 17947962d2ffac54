// 结构化日志条目
package logger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// NowFormatted 返回当前时间的格式化字符串
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 服务模式下的HTTP请求
	AccessLog LogType = "access"
	// SystemLog 系统日志 - 列表同步、规则加载、服务启停
	SystemLog LogType = "system"
	// ProbeLog 探测日志 - 单个站点探测结果
	ProbeLog LogType = "probe"
)

// LogLevel 日志级别类型，封装logrus.Level避免调用方直接依赖logrus
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ProbeLogEntry 探测日志条目
type ProbeLogEntry struct {
	Site       string `json:"site"`        // 站点名称
	URL        string `json:"url"`         // 请求地址
	Status     string `json:"status"`      // 探测结果
	StatusCode int    `json:"status_code"` // HTTP状态码 (传输失败时为0)
	Duration   int64  `json:"duration"`    // 耗时(毫秒)
	Error      string `json:"error"`       // 错误信息
}

// LogProbe 记录单个站点探测日志
// ERROR 结果记为 warn，其余记为 debug，避免正常探测刷屏
func LogProbe(entry ProbeLogEntry) {
	l := active()
	if l == nil {
		return
	}

	fields := logrus.Fields{
		"type":        ProbeLog,
		"site":        entry.Site,
		"url":         entry.URL,
		"status":      entry.Status,
		"status_code": entry.StatusCode,
		"duration_ms": entry.Duration,
	}
	if entry.Error != "" {
		fields["error"] = entry.Error
		l.WithFields(fields).Warn(fmt.Sprintf("Probe failed: %s", entry.Site))
		return
	}
	l.WithFields(fields).Debug(fmt.Sprintf("Probe finished: %s", entry.Site))
}

// LogAccess 记录服务模式的访问日志
func LogAccess(method, path string, statusCode int, latency time.Duration, clientIP string) {
	l := active()
	if l == nil {
		return
	}
	l.WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        method,
		"path":          path,
		"status_code":   statusCode,
		"response_time": latency.Milliseconds(),
		"client_ip":     clientIP,
	}).Info("HTTP request processed")
}

// LogSystemEvent 记录系统事件日志
// 用于记录列表同步、规则重载、服务启停等系统级事件
func LogSystemEvent(component, event, message string, level LogLevel, extraFields map[string]interface{}) {
	l := active()
	if l == nil {
		return
	}

	fields := logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
		"message":   message,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	msg := fmt.Sprintf("System event: %s - %s", component, event)
	e := l.WithFields(fields)
	switch level {
	case DebugLevel:
		e.Debug(msg)
	case WarnLevel:
		e.Warn(msg)
	case ErrorLevel:
		e.Error(msg)
	default:
		e.Info(msg)
	}
}
