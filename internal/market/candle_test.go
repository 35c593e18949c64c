package market

import "testing"

func TestCandlesNormalize(t *testing.T) {
	cs := Candles{
		{Date: "2024-03-02", Close: 2},
		{Date: "2024-03-01", Close: 1},
		{Date: "2024-03-02", Close: 3},
	}
	got := cs.Normalize()
	if len(got) != 2 || got[0].Date != "2024-03-01" || got[1].Close != 3 {
		t.Fatalf("K 线规范化异常: %+v", got)
	}
	if cs[0].Close != 2 {
		t.Fatalf("原切片不应被修改")
	}
	closes := got.Closes()
	if len(closes) != 2 || closes[1] != 3 {
		t.Fatalf("收盘价提取异常: %v", closes)
	}
}

func TestCandlesBetween(t *testing.T) {
	cs := Candles{{Date: "2024-03-01"}, {Date: "2024-03-02"}, {Date: "2024-03-03"}}
	if got := cs.Between("2024-03-02", ""); len(got) != 2 {
		t.Fatalf("区间过滤异常: %+v", got)
	}
	if got := cs.Between("", "2024-03-01"); len(got) != 1 {
		t.Fatalf("区间过滤异常: %+v", got)
	}
}
