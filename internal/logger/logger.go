// Package logger 提供全局日志门面，底层使用 zerolog。
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置。
type Config struct {
	Level  string `toml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `toml:"format" default:"console" validate:"oneof=console json"`
	Output string `toml:"output" default:"stderr"` // stdout / stderr / 文件路径
}

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Init 按配置重建全局 logger。
func Init(cfg Config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer
	switch strings.TrimSpace(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime, NoColor: cfg.Output != "" && cfg.Output != "stderr" && cfg.Output != "stdout"}
	}
	SetOutput(out, level)
	return nil
}

// SetOutput 直接替换输出，测试中用于捕获日志。
func SetOutput(w io.Writer, level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// L 返回当前 logger，便于附加结构化字段。
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debugf(format string, args ...any) {
	l := L()
	l.Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	l := L()
	l.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	l := L()
	l.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	l := L()
	l.Error().Msgf(format, args...)
}
