// Package config 读取 seccompbench 的 YAML 配置文件
package config

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/zqzqsb/seccompbench/disallow"
)

// DefaultIterations 是未配置时的 fcntl 调用次数
const DefaultIterations = 10000

// Config 是配置文件的内容，命令行参数会覆盖其中的值
type Config struct {
	Iterations int      `yaml:"iterations"`
	Disallowed []string `yaml:"disallowed_syscalls"`
	WorkDir    string   `yaml:"workdir"`
	Log        Log      `yaml:"log"`
}

// Log 是日志配置
type Log struct {
	Verbose bool `yaml:"verbose"`
	// File 不为空时额外写入 JSON 日志，按大小轮转
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Iterations: DefaultIterations,
		Disallowed: append([]string(nil), disallow.DefaultNames...),
		Log: Log{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load 在默认配置之上解析 path，文件中没有出现的字段保持默认值
func Load(path string) (Config, error) {
	cfg := Default()

	configFile, err := os.Open(path)
	if err != nil {
		return cfg, xerrors.Errorf("open config: %w", err)
	}
	defer configFile.Close()

	decoder := yaml.NewDecoder(configFile)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, xerrors.Errorf("decode config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, xerrors.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return xerrors.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return xerrors.New("log rotation limits must not be negative")
	}
	return nil
}
