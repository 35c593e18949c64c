// Package config 负责加载 tradeboard.toml，填充默认值并校验。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"tradeboard/internal/analysis/bounds"
	"tradeboard/internal/analysis/indicator"
	"tradeboard/internal/logger"
)

// Config 顶层配置。
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Log     logger.Config `toml:"log"`
	Backend BackendConfig `toml:"backend"`
	Binance BinanceConfig `toml:"binance"`
	Store   StoreConfig   `toml:"store"`
	Chart   ChartConfig   `toml:"chart"`
	Presets PresetsConfig `toml:"presets"`
}

type ServerConfig struct {
	Addr                   string `toml:"addr" default:":9992" validate:"required"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds" default:"5" validate:"gte=1"`
}

type BackendConfig struct {
	BaseURL             string   `toml:"base_url" validate:"omitempty,url"`
	Token               string   `toml:"token"`
	TimeoutSeconds      int      `toml:"timeout_seconds" default:"15" validate:"gte=1"`
	SyncIntervalSeconds int      `toml:"sync_interval_seconds"` // 0 表示不做后台同步
	Agents              []string `toml:"agents"`
	Concurrency         int      `toml:"concurrency" default:"4" validate:"gte=1,lte=32"`
}

type BinanceConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url" validate:"omitempty,url"`
	Limit   int    `toml:"limit" default:"120" validate:"gte=1,lte=1500"`
}

type StoreConfig struct {
	SQLitePath string `toml:"sqlite_path" default:"data/tradeboard.db"`
	MaxPoints  int    `toml:"max_points" default:"2000" validate:"gte=1"`
}

type ChartConfig struct {
	Palette         []string           `toml:"palette"`
	DefaultBaseline float64            `toml:"default_baseline" default:"20000" validate:"gt=0"`
	ColorByName     bool               `toml:"color_by_name"`
	Indicators      indicator.Settings `toml:"indicators"`
	Currency        bounds.Options     `toml:"currency"`
	Percent         bounds.Options     `toml:"percent"`
	Price           bounds.Options     `toml:"price"`
}

type PresetsConfig struct {
	Path string `toml:"path" default:"configs/presets.yaml"`
}

// ShutdownTimeout 秒转 Duration。
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Timeout 秒转 Duration。
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SyncInterval 秒转 Duration。
func (c BackendConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// Default 返回仅含默认值的配置。
func Default() (*Config, error) {
	cfg := seed()
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seed 预先填入坐标轴预设，TOML 只覆盖显式写出的键。
func seed() *Config {
	return &Config{Chart: ChartConfig{
		Currency: bounds.Currency(),
		Percent:  bounds.Percent(),
		Price:    bounds.Price(),
	}}
}

// Load 读取 .env 与 TOML 文件；path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := seed()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finalize(cfg *Config) error {
	if err := defaults.Set(cfg); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	cfg.Chart.Indicators = cfg.Chart.Indicators.Normalize()
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRADEBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRADEBOARD_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("TRADEBOARD_BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("TRADEBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TRADEBOARD_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("TRADEBOARD_DEFAULT_BASELINE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Chart.DefaultBaseline = f
		} else {
			logger.Warnf("ignore TRADEBOARD_DEFAULT_BASELINE=%q: %v", v, err)
		}
	}
}
