package store

import (
	"context"
	"errors"
	"testing"

	"tradeboard/internal/market"
	"tradeboard/internal/series"
)

func TestMemoryPutMergesByDate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.Put(ctx, "a", []series.DatedValue{{Date: "2024-01-02", Value: 2}, {Date: "2024-01-01", Value: 1}}, 10); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "a", []series.DatedValue{{Date: "2024-01-02", Value: 20}, {Date: "2024-01-03", Value: 3}}, 10); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 3 || got[1].Value != 20 || got[2].Date != "2024-01-03" {
		t.Fatalf("同日期应覆盖、按日期排序: %+v", got)
	}

	got[0].Value = 999
	again, _ := s.Get(ctx, "a")
	if again[0].Value != 1 {
		t.Fatalf("Get 应返回拷贝")
	}
}

func TestMemoryTrimAndIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	pts := []series.DatedValue{
		{Date: "2024-01-01", Value: 1}, {Date: "2024-01-02", Value: 2},
		{Date: "2024-01-03", Value: 3}, {Date: "2024-01-04", Value: 4},
	}
	if err := s.Put(ctx, "a", pts, 3); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ := s.Get(ctx, "a")
	if len(got) != 3 || got[0].Date != "2024-01-02" {
		t.Fatalf("超过上限应裁掉最旧的点: %+v", got)
	}
	if ids := s.IDs(); len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("ids 异常: %v", ids)
	}
}

func TestMemoryNotFoundAndValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("未缓存的序列应返回 ErrNotFound, got=%v", err)
	}
	if _, err := s.Candles(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("未缓存的 K 线应返回 ErrNotFound, got=%v", err)
	}
	if err := s.Put(ctx, "", []series.DatedValue{{Date: "2024-01-01"}}, 0); err == nil {
		t.Fatalf("空 id 应报错")
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("删除未缓存的序列应返回 ErrNotFound, got=%v", err)
	}
	_ = s.Put(ctx, "b", []series.DatedValue{{Date: "2024-01-01", Value: 1}}, 0)
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("删除后应读不到, got=%v", err)
	}
	if ids := s.IDs(); len(ids) != 0 {
		t.Fatalf("删除后 ids 应为空: %v", ids)
	}
}

func TestMemoryCandles(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.PutCandles(ctx, "BTCUSDT", []market.Candle{{Date: "2024-01-02", Close: 2}, {Date: "2024-01-01", Close: 1}}, 0)
	_ = s.PutCandles(ctx, "BTCUSDT", []market.Candle{{Date: "2024-01-02", Close: 5}}, 0)
	got, err := s.Candles(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2024-01-01" || got[1].Close != 5 {
		t.Fatalf("K 线合并异常: %+v", got)
	}
}
