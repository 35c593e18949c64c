package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tradeboard/internal/market"
	"tradeboard/internal/series"
)

// ErrNotFound 指定 id 尚未缓存。
var ErrNotFound = errors.New("store: series not found")

// SeriesStore 抽象：按序列 id 读写日期点。
type SeriesStore interface {
	Put(ctx context.Context, id string, points []series.DatedValue, max int) error
	Get(ctx context.Context, id string) ([]series.DatedValue, error)
}

// CandleStore 抽象：按标的代码读写日 K 线。
type CandleStore interface {
	PutCandles(ctx context.Context, symbol string, candles []market.Candle, max int) error
	Candles(ctx context.Context, symbol string) ([]market.Candle, error)
}

// Memory 内存实现，同时缓存资产序列与 K 线。
type Memory struct {
	mu      sync.RWMutex
	points  map[string][]series.DatedValue
	candles map[string][]market.Candle
}

func NewMemory() *Memory {
	return &Memory{
		points:  make(map[string][]series.DatedValue),
		candles: make(map[string][]market.Candle),
	}
}

// Put 按日期合并：同一天覆盖，新日期追加，超过 max 时裁掉最旧的点。
func (s *Memory) Put(ctx context.Context, id string, points []series.DatedValue, max int) error {
	if id == "" {
		return errors.New("series id 不能为空")
	}
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := append(append([]series.DatedValue(nil), s.points[id]...), points...)
	s.points[id] = trim(series.Normalize(merged), max)
	return nil
}

// Delete 移除序列，未缓存时返回 ErrNotFound。
func (s *Memory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.points[id]; !ok {
		return ErrNotFound
	}
	delete(s.points, id)
	return nil
}

// Get 返回拷贝
func (s *Memory) Get(ctx context.Context, id string) ([]series.DatedValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.points[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]series.DatedValue, len(cur))
	copy(out, cur)
	return out, nil
}

// IDs 已缓存的序列 id，按字典序。
func (s *Memory) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.points))
	for id := range s.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Memory) PutCandles(ctx context.Context, symbol string, candles []market.Candle, max int) error {
	if symbol == "" {
		return errors.New("symbol 不能为空")
	}
	if len(candles) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := append(append(market.Candles(nil), s.candles[symbol]...), candles...).Normalize()
	if max > 0 && len(merged) > max {
		merged = merged[len(merged)-max:]
	}
	s.candles[symbol] = merged
	return nil
}

func (s *Memory) Candles(ctx context.Context, symbol string) ([]market.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.candles[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]market.Candle, len(cur))
	copy(out, cur)
	return out, nil
}

func trim(points []series.DatedValue, max int) []series.DatedValue {
	if max > 0 && len(points) > max {
		return points[len(points)-max:]
	}
	return points
}
