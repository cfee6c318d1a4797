// Package config 提供统一的配置加载、校验与热更新能力.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/nanoid/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 NANOID_GENERATOR_SIZE.
const EnvPrefix = "NANOID"

// Config 全局顶级配置结构.
type Config struct {
	Version   string          `mapstructure:"version"   toml:"version"`
	Log       LogConfig       `mapstructure:"log"       toml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   toml:"metrics"`
	Generator GeneratorConfig `mapstructure:"generator" toml:"generator"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      toml:"format"      validate:"omitempty,oneof=json text"`
	Output     string `mapstructure:"output"      toml:"output"      validate:"omitempty,oneof=stderr stdout file both"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    validate:"min=0"` // MB
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     validate:"min=0"` // 天
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// MetricsConfig 指标采集配置.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"   toml:"enabled"`
	Namespace string `mapstructure:"namespace" toml:"namespace"`
}

// GeneratorConfig ID 生成器参数.
// Size 与 MaxRounds 为 0 时分别表示默认长度与不限轮次.
type GeneratorConfig struct {
	Alphabet  string `mapstructure:"alphabet"   toml:"alphabet"   validate:"omitempty,max=255"`
	Source    string `mapstructure:"source"     toml:"source"     validate:"omitempty,oneof=crypto chacha20 pcg"`
	Seed      string `mapstructure:"seed"       toml:"seed"`
	Size      int    `mapstructure:"size"       toml:"size"       validate:"min=0"`
	MaxRounds int    `mapstructure:"max_rounds" toml:"max_rounds" validate:"min=0"`
	Workers   int    `mapstructure:"workers"    toml:"workers"    validate:"min=0"`
}

var (
	onReload []func(*Config)
	reloadMu sync.Mutex
)

// NewViper 返回已登记默认值的 viper 实例，命令行参数可在 Load 之前绑定到该实例.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

// SetDefaults 在 viper 实例上登记默认值，同时使对应的环境变量可被识别.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("version", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "nanoid")
	v.SetDefault("generator.alphabet", "")
	v.SetDefault("generator.size", 0)
	v.SetDefault("generator.source", "crypto")
	v.SetDefault("generator.seed", "")
	v.SetDefault("generator.max_rounds", 0)
	v.SetDefault("generator.workers", 0)
}

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	reloadMu.Lock()
	defer reloadMu.Unlock()
	onReload = append(onReload, hook)
}

// Load 加载配置：默认值 < 配置文件 < 环境变量 < 已绑定的命令行参数.
// path 为空时跳过配置文件，也不启动文件监听.
func Load(v *viper.Viper, path string, conf *Config) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config error: %w", err)
		}
	}

	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if path == "" {
		return nil
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		var next Config
		if err := v.Unmarshal(&next); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := validate.Struct(&next); err != nil {
			slog.Error("reload config validation failed", "error", err)
			return
		}

		*conf = next
		logging.SetLevel(next.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")

		reloadMu.Lock()
		hooks := slices.Clone(onReload)
		reloadMu.Unlock()
		for _, hook := range hooks {
			hook(conf)
		}
	})
	v.WatchConfig()

	return nil
}

// PrintWithMask 以 debug 级别脱敏打印当前配置.
func PrintWithMask(conf any) {
	masked, err := MaskedJSON(conf)
	if err != nil {
		slog.Error("failed to mask config for printing", "error", err)
		return
	}
	slog.Debug("current effective configuration", "config", masked)
}

// MaskedJSON 返回敏感字段被替换为 ****** 的 JSON.
func MaskedJSON(conf any) (string, error) {
	data, err := json.Marshal(conf)
	if err != nil {
		return "", err
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		return "", err
	}

	mask(configMap)

	out, err := json.Marshal(configMap)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "seed", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
