package binance

import "time"

// Config 描述 Binance Source 运行所需的参数。
type Config struct {
	BaseURL     string
	Limit       int
	HTTPTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = "https://fapi.binance.com"
	}
	if out.Limit <= 0 {
		out.Limit = 120
	}
	if out.Limit > maxHistoryLimit {
		out.Limit = maxHistoryLimit
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	return out
}
