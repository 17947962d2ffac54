/**
 * 配置管理
 * @author: sun977
 * @date: 2025.10.21
 * @description: 负责加载和管理探测引擎、规则列表、导出与日志等配置
 */
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 全局配置
type Config struct {
	// 应用配置
	App *AppConfig `yaml:"app" mapstructure:"app"`

	// 日志配置
	Log *LogConfig `yaml:"log" mapstructure:"log"`

	// 探测配置
	Probe *ProbeConfig `yaml:"probe" mapstructure:"probe"`

	// 规则列表配置
	Lists *ListsConfig `yaml:"lists" mapstructure:"lists"`

	// 导出配置
	Export *ExportConfig `yaml:"export" mapstructure:"export"`

	// 外部富化配置
	Enrich *EnrichConfig `yaml:"enrich" mapstructure:"enrich"`

	// 服务模式配置
	Server *ServerConfig `yaml:"server" mapstructure:"server"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`               // 应用名称
	Environment string `yaml:"environment" mapstructure:"environment"` // 运行环境
	Debug       bool   `yaml:"debug" mapstructure:"debug"`             // 调试模式
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别 (debug/info/warn/error)
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式 (json/text)
	Output     string `yaml:"output" mapstructure:"output"`           // 日志输出 (stdout/stderr/file)
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 最大文件大小（MB）
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 最大备份数
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 最大保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// ProbeConfig 探测配置
type ProbeConfig struct {
	Timeout               time.Duration `yaml:"timeout" mapstructure:"timeout"`                                 // 单个请求超时
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"` // 并发上限
	AdaptiveConcurrency   bool          `yaml:"adaptive_concurrency" mapstructure:"adaptive_concurrency"`       // 超时后自动收缩并发上限
	BatchSize             int           `yaml:"batch_size" mapstructure:"batch_size"`                           // 分批大小
	BatchPauseThreshold   int           `yaml:"batch_pause_threshold" mapstructure:"batch_pause_threshold"`     // 超过该规则数时批次间暂停
	BatchPause            time.Duration `yaml:"batch_pause" mapstructure:"batch_pause"`                         // 批次间暂停时长
	RateLimit             float64       `yaml:"rate_limit" mapstructure:"rate_limit"`                           // 每秒请求数 (0 表示不限)
	UseCache              bool          `yaml:"use_cache" mapstructure:"use_cache"`                             // 是否启用结果缓存
	Proxy                 string        `yaml:"proxy" mapstructure:"proxy"`                                     // 代理地址 (http/https/socks5)
	UserAgentsFile        string        `yaml:"user_agents_file" mapstructure:"user_agents_file"`               // User-Agent 列表文件
}

// ListsConfig 规则列表配置
type ListsConfig struct {
	Directory        string `yaml:"directory" mapstructure:"directory"`                 // 列表目录
	UsernameFile     string `yaml:"username_file" mapstructure:"username_file"`         // 用户名规则文件
	UsernameURL      string `yaml:"username_url" mapstructure:"username_url"`           // 用户名规则远程地址
	UsernameMetadata string `yaml:"username_metadata" mapstructure:"username_metadata"` // 用户名元数据侧表
	EmailFile        string `yaml:"email_file" mapstructure:"email_file"`               // 邮箱规则文件
	EmailURL         string `yaml:"email_url" mapstructure:"email_url"`                 // 邮箱规则远程地址 (可选)
}

// ExportConfig 导出配置
type ExportConfig struct {
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"` // 结果根目录
}

// EnrichConfig 外部富化配置
type EnrichConfig struct {
	SessionToken string `yaml:"session_token" mapstructure:"session_token"` // 身份富化所需的会话令牌
}

// ServerConfig 服务模式配置
type ServerConfig struct {
	Listen       string        `yaml:"listen" mapstructure:"listen"`               // 监听地址
	Mode         string        `yaml:"mode" mapstructure:"mode"`                   // gin 运行模式 (debug/release/test)
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`   // 读取超时时间
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"` // 写入超时时间
	WatchLists   bool          `yaml:"watch_lists" mapstructure:"watch_lists"`     // 是否监听规则文件变化
}

// UsernamePath 用户名规则文件完整路径
func (l *ListsConfig) UsernamePath() string {
	return filepath.Join(l.Directory, l.UsernameFile)
}

// MetadataPath 元数据侧表完整路径
func (l *ListsConfig) MetadataPath() string {
	return filepath.Join(l.Directory, l.UsernameMetadata)
}

// EmailPath 邮箱规则文件完整路径
func (l *ListsConfig) EmailPath() string {
	return filepath.Join(l.Directory, l.EmailFile)
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		App: &AppConfig{
			Name:        "NeoRecon",
			Environment: "development",
		},
		Log: &LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePath:   "./logs/neorecon.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
		Probe: &ProbeConfig{
			Timeout:               30 * time.Second,
			MaxConcurrentRequests: 30,
			BatchSize:             100,
			BatchPauseThreshold:   200,
			BatchPause:            500 * time.Millisecond,
			UseCache:              true,
			UserAgentsFile:        "./data/useragents.txt",
		},
		Lists: &ListsConfig{
			Directory:        "./data",
			UsernameFile:     "wmn-data.json",
			UsernameURL:      "https://raw.githubusercontent.com/WebBreacher/WhatsMyName/main/wmn-data.json",
			UsernameMetadata: "wmn-metadata.json",
			EmailFile:        "email-data.json",
		},
		Export: &ExportConfig{
			ResultsDir: "./results",
		},
		Enrich: &EnrichConfig{},
		Server: &ServerConfig{
			Listen:       ":8090",
			Mode:         "release",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			WatchLists:   true,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Probe == nil || c.Lists == nil || c.Log == nil {
		return fmt.Errorf("probe, lists and log sections are required")
	}
	if c.Probe.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("invalid max_concurrent_requests: %d", c.Probe.MaxConcurrentRequests)
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("invalid probe timeout: %s", c.Probe.Timeout)
	}
	if c.Probe.BatchSize <= 0 {
		return fmt.Errorf("invalid batch_size: %d", c.Probe.BatchSize)
	}
	if c.Lists.Directory == "" {
		return fmt.Errorf("lists directory is required")
	}
	return nil
}

// Save 将配置以 YAML 格式写入文件
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
