// Package config 加载 count-primes 的分层配置
//
// 优先级: 默认值 → YAML 文件 → 命令行参数（由调用方覆盖）
//
//	cfg, err := config.Load("sieve.yaml")
//	logger, err := cfg.NewLogger(os.Stderr)
//	opts, err := cfg.SieveOptions(logger)
//	s, err := sieve.New(opts...)
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/lwmacct/251215-go-pkg-sieve/pkg/actor"
	"github.com/lwmacct/251215-go-pkg-sieve/pkg/sieve"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid config")

// ═══════════════════════════════════════════════════════════════════════════
// 配置结构
// ═══════════════════════════════════════════════════════════════════════════

// Config 完整配置
type Config struct {
	Sieve SieveConfig `koanf:"sieve"`
	Actor ActorConfig `koanf:"actor"`
	Log   LogConfig   `koanf:"log"`
}

// SieveConfig 流水线配置
type SieveConfig struct {
	// Capacity 每级保存的素数上限
	Capacity int `koanf:"capacity"`
}

// ActorConfig Actor 运行时配置
type ActorConfig struct {
	// Dispatcher 调度器: default, shared
	Dispatcher string `koanf:"dispatcher"`
	// Workers 共享调度器 worker 数量，0 表示 GOMAXPROCS
	Workers int `koanf:"workers"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别: debug, info, warn, error
	Level string `koanf:"level"`
	// Format 输出格式: text, json
	Format string `koanf:"format"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Sieve: SieveConfig{
			Capacity: sieve.DefaultCapacity,
		},
		Actor: ActorConfig{
			Dispatcher: actor.DispatcherShared.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 加载
// ═══════════════════════════════════════════════════════════════════════════

// Load 以默认值为底加载 YAML 文件，path 为空时只返回默认值
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Sieve.Capacity < 1 {
		return fmt.Errorf("%w: sieve.capacity must be at least 1, got %d", ErrInvalidConfig, c.Sieve.Capacity)
	}
	if c.Actor.Workers < 0 {
		return fmt.Errorf("%w: actor.workers must not be negative, got %d", ErrInvalidConfig, c.Actor.Workers)
	}
	if _, err := c.DispatcherType(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// DispatcherType 解析调度器类型
func (c *Config) DispatcherType() (actor.DispatcherType, error) {
	return actor.ParseDispatcher(c.Actor.Dispatcher)
}

// SieveOptions 转换为 sieve.New 的选项
func (c *Config) SieveOptions(logger *slog.Logger) ([]sieve.Option, error) {
	d, err := c.DispatcherType()
	if err != nil {
		return nil, err
	}
	return []sieve.Option{
		sieve.WithCapacity(c.Sieve.Capacity),
		sieve.WithDispatcher(d),
		sieve.WithWorkers(c.Actor.Workers),
		sieve.WithLogger(logger),
	}, nil
}

// NewLogger 按日志配置创建写入 w 的 slog.Logger
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Log.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
