package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvLoader .env 文件加载器
// 在 viper 读取环境变量之前把 .env 中的键值注入进程环境, 已存在的环境变量不会被覆盖
type EnvLoader struct {
	envFiles []string // .env文件路径列表
	loaded   bool     // 是否已加载
}

// NewEnvLoader 创建环境变量加载器
func NewEnvLoader(envFiles ...string) *EnvLoader {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	return &EnvLoader{
		envFiles: envFiles,
	}
}

// Load 加载环境变量
func (e *EnvLoader) Load() error {
	if e.loaded {
		return nil
	}

	for _, envFile := range e.envFiles {
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			// .env文件不存在不算错误
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	e.loaded = true
	return nil
}

// Load 加载 .env 后读取配置, 供 CLI 与服务模式共用
func Load(configFile string, envFiles ...string) (*ConfigLoader, *Config, error) {
	if err := NewEnvLoader(envFiles...).Load(); err != nil {
		return nil, nil, err
	}
	loader := NewConfigLoader(configFile, "NEORECON")
	cfg, err := loader.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return loader, cfg, nil
}
