package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"tradeboard/internal/logger"
	"tradeboard/internal/market"
)

const (
	maxHistoryLimit = 1500
	dailyInterval   = "1d"
	dateLayout      = "2006-01-02"
)

// Source 通过 USDT 合约 REST 接口拉取日 K 线，实现 market.Source。
type Source struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimRight(final.BaseURL, "/")
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

func (s *Source) Name() string { return "binance" }

// FetchDaily 返回最近 limit 根日 K 线，日期取开盘时间的 UTC 日。
func (s *Source) FetchDaily(ctx context.Context, symbol string, limit int) ([]market.Candle, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("binance source not initialized")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	logger.Debugf("[binance] klines %s %s limit=%d", symbol, dailyInterval, limit)
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(dailyInterval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}
	return toCandles(klines), nil
}

func toCandles(klines []*futures.Kline) []market.Candle {
	out := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		if k == nil {
			continue
		}
		date := time.UnixMilli(k.OpenTime).UTC().Format(dateLayout)
		var fields [5]float64
		raw := [5]string{k.Open, k.Close, k.High, k.Low, k.Volume}
		ok := true
		for i, v := range raw {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				ok = false
				break
			}
			fields[i] = f
		}
		if !ok {
			// 无法解析的字段不能当作 0，整根 K 线丢弃
			logger.Warnf("[binance] skip kline %s: unparsable field %v", date, raw)
			continue
		}
		out = append(out, market.Candle{
			Date:   date,
			Open:   fields[0],
			Close:  fields[1],
			High:   fields[2],
			Low:    fields[3],
			Volume: fields[4],
		})
	}
	return out
}
