package market

import "context"

// Source 统一对接外部日线供应商。
type Source interface {
	// FetchDaily 拉取最近 limit 根日 K 线并按日期升序返回。
	FetchDaily(ctx context.Context, symbol string, limit int) ([]Candle, error)
	// Name 数据源名称，用于日志。
	Name() string
}
