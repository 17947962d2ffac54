package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configFile string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
// configFile 为空时按 ./configs/config.yaml, ./config.yaml 的顺序查找
func NewConfigLoader(configFile, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = "NEORECON"
	}

	return &ConfigLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// Viper 返回底层 viper 实例, 供命令行绑定 flag 使用
func (cl *ConfigLoader) Viper() *viper.Viper {
	return cl.viper
}

// LoadConfig 加载配置
// 优先级: flag > 环境变量 > 配置文件 > 默认值
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	// 环境变量
	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cl.viper.AutomaticEnv()
	cl.bindEnvVars()

	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var config Config
	if err := cl.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile 加载配置文件, 找不到配置文件时使用默认值
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configFile == "" {
		cl.configFile = os.Getenv(cl.envPrefix + "_CONFIG_PATH")
	}

	if cl.configFile != "" {
		cl.viper.SetConfigFile(cl.configFile)
		return cl.viper.ReadInConfig()
	}

	cl.viper.SetConfigName("config")
	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")

	if err := cl.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// bindEnvVars 绑定不带前缀的兼容环境变量
func (cl *ConfigLoader) bindEnvVars() {
	cl.viper.BindEnv("enrich.session_token", cl.envPrefix+"_ENRICH_SESSION_TOKEN", "INSTAGRAM_SESSION_ID")
	cl.viper.BindEnv("probe.proxy", cl.envPrefix+"_PROBE_PROXY", "HTTPS_PROXY")
	cl.viper.BindEnv("log.level", cl.envPrefix+"_LOG_LEVEL")
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	d := Default()

	cl.viper.SetDefault("app.name", d.App.Name)
	cl.viper.SetDefault("app.environment", d.App.Environment)
	cl.viper.SetDefault("app.debug", d.App.Debug)

	cl.viper.SetDefault("log.level", d.Log.Level)
	cl.viper.SetDefault("log.format", d.Log.Format)
	cl.viper.SetDefault("log.output", d.Log.Output)
	cl.viper.SetDefault("log.file_path", d.Log.FilePath)
	cl.viper.SetDefault("log.max_size", d.Log.MaxSize)
	cl.viper.SetDefault("log.max_backups", d.Log.MaxBackups)
	cl.viper.SetDefault("log.max_age", d.Log.MaxAge)
	cl.viper.SetDefault("log.compress", d.Log.Compress)
	cl.viper.SetDefault("log.caller", d.Log.Caller)

	cl.viper.SetDefault("probe.timeout", d.Probe.Timeout)
	cl.viper.SetDefault("probe.max_concurrent_requests", d.Probe.MaxConcurrentRequests)
	cl.viper.SetDefault("probe.adaptive_concurrency", d.Probe.AdaptiveConcurrency)
	cl.viper.SetDefault("probe.batch_size", d.Probe.BatchSize)
	cl.viper.SetDefault("probe.batch_pause_threshold", d.Probe.BatchPauseThreshold)
	cl.viper.SetDefault("probe.batch_pause", d.Probe.BatchPause)
	cl.viper.SetDefault("probe.rate_limit", d.Probe.RateLimit)
	cl.viper.SetDefault("probe.use_cache", d.Probe.UseCache)
	cl.viper.SetDefault("probe.proxy", d.Probe.Proxy)
	cl.viper.SetDefault("probe.user_agents_file", d.Probe.UserAgentsFile)

	cl.viper.SetDefault("lists.directory", d.Lists.Directory)
	cl.viper.SetDefault("lists.username_file", d.Lists.UsernameFile)
	cl.viper.SetDefault("lists.username_url", d.Lists.UsernameURL)
	cl.viper.SetDefault("lists.username_metadata", d.Lists.UsernameMetadata)
	cl.viper.SetDefault("lists.email_file", d.Lists.EmailFile)
	cl.viper.SetDefault("lists.email_url", d.Lists.EmailURL)

	cl.viper.SetDefault("export.results_dir", d.Export.ResultsDir)
	cl.viper.SetDefault("enrich.session_token", "")

	cl.viper.SetDefault("server.listen", d.Server.Listen)
	cl.viper.SetDefault("server.mode", d.Server.Mode)
	cl.viper.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	cl.viper.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	cl.viper.SetDefault("server.watch_lists", d.Server.WatchLists)
}

// GetConfigPath 获取实际使用的配置文件路径
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}
