package indicator

import (
	"encoding/json"
	"math"
	"testing"

	"tradeboard/internal/series"
)

func TestReturnRate(t *testing.T) {
	if got := ReturnRate(22000, 20000); got != 10.0 {
		t.Fatalf("收益率应为 10, 实际=%v", got)
	}
	if got := ReturnRate(20000, 20000); got != 0 {
		t.Fatalf("基准点收益率应为 0, 实际=%v", got)
	}
	for _, base := range []float64{0, -100} {
		got := ReturnRate(5, base)
		if got != 0 || math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("非正基准应返回 0, base=%v 实际=%v", base, got)
		}
	}
	if got := ReturnRate(1e10, 1e-300); got != 0 {
		t.Fatalf("溢出的收益率应返回 0, 实际=%v", got)
	}
	rates := ReturnRates([]series.Value{series.Some(1e10)}, 1e-300)
	if _, err := json.Marshal(rates); err != nil {
		t.Fatalf("收益率序列应可编码: %v", err)
	}
}

func TestReturnRateIsLinear(t *testing.T) {
	base := 1000.0
	a, b := 1100.0, 1300.0
	mid := (a + b) / 2
	if diff := ReturnRate(mid, base) - (ReturnRate(a, base)+ReturnRate(b, base))/2; math.Abs(diff) > 1e-9 {
		t.Fatalf("收益率应线性, 偏差=%v", diff)
	}
}

func TestResolveBaseline(t *testing.T) {
	explicit := 50000.0
	pts := []series.DatedValue{{Date: "2024-01-02", Value: 110}, {Date: "2024-01-01", Value: 100}}
	if got := ResolveBaseline(&explicit, pts, DefaultBaseline); got != explicit {
		t.Fatalf("应优先使用显式基准, 实际=%v", got)
	}
	if got := ResolveBaseline(nil, pts, DefaultBaseline); got != 100 {
		t.Fatalf("应使用最早数据点, 实际=%v", got)
	}
	if got := ResolveBaseline(nil, nil, DefaultBaseline); got != DefaultBaseline {
		t.Fatalf("无数据时应使用默认值, 实际=%v", got)
	}
}

func TestReturnRatesKeepGaps(t *testing.T) {
	got := ReturnRates([]series.Value{series.Some(110), series.None(), series.Some(90)}, 100)
	if !got[0].Valid || math.Abs(got[0].V-10) > 1e-9 {
		t.Fatalf("首点收益率异常: %+v", got[0])
	}
	if got[1].Valid {
		t.Fatalf("缺失点应保持缺失: %+v", got[1])
	}
	if !got[2].Valid || math.Abs(got[2].V+10) > 1e-9 {
		t.Fatalf("末点收益率异常: %+v", got[2])
	}
	zero := ReturnRates([]series.Value{series.Some(5)}, 0)
	if !zero[0].Valid || zero[0].V != 0 {
		t.Fatalf("零基准应输出 0: %+v", zero[0])
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	prices := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 11}
	rsi, ok := RSI(prices, 14)
	if !ok {
		t.Fatalf("15 个点应足够计算 RSI(14)")
	}
	if rsi != 100 {
		t.Fatalf("无下跌时 RSI 应为 100, 实际=%v", rsi)
	}
}

func TestRSIMixed(t *testing.T) {
	// 7 次 +2、7 次 -1：avgGain=1, avgLoss=0.5, RSI=100-100/3
	prices := []float64{100}
	for i := 0; i < 7; i++ {
		last := prices[len(prices)-1]
		prices = append(prices, last+2, last+1)
	}
	rsi, ok := RSI(prices, 14)
	if !ok {
		t.Fatalf("应能计算 RSI")
	}
	want := 100 - 100/(1+1/0.5)
	if math.Abs(rsi-want) > 1e-9 {
		t.Fatalf("RSI 异常: got=%v want=%v", rsi, want)
	}
}

func TestRSIInsufficient(t *testing.T) {
	if _, ok := RSI(make([]float64, 14), 14); ok {
		t.Fatalf("14 个点不足以计算 RSI(14)")
	}
}

func TestSMA(t *testing.T) {
	v, ok := SMA([]float64{1, 2, 3, 4, 5, 6}, 5)
	if !ok || v != 4 {
		t.Fatalf("SMA 应取最后 5 个点的均值, 实际=%v ok=%v", v, ok)
	}
	if _, ok := SMA([]float64{1, 2}, 5); ok {
		t.Fatalf("窗口不足时不应计算")
	}
}

func TestComputeOmitsWhenShort(t *testing.T) {
	got := Compute([]float64{10}, Settings{})
	if len(got) != 0 {
		t.Fatalf("单点不应产生指标: %+v", got)
	}
	got = Compute([]float64{1, 2, 3, 4, 5}, Settings{})
	if len(got) != 1 || got[0].Name != "change" {
		t.Fatalf("5 个点只应有涨跌幅: %+v", got)
	}
}

func TestComputeSignals(t *testing.T) {
	rising := make([]float64, 15)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	got := Compute(rising, Settings{})
	byName := map[string]Indicator{}
	for _, ind := range got {
		byName[ind.Name] = ind
	}
	rsi, ok := byName["RSI(14)"]
	if !ok || rsi.State != "overbought" || rsi.Signal != SignalNegative {
		t.Fatalf("单边上涨应为超买: %+v", rsi)
	}
	cross, ok := byName["MA5/MA10"]
	if !ok || cross.State != "golden cross" || cross.Signal != SignalPositive {
		t.Fatalf("MA5 > MA10 应为金叉: %+v", cross)
	}

	falling := make([]float64, 15)
	for i := range falling {
		falling[i] = float64(100 - i)
	}
	for _, ind := range Compute(falling, Settings{}) {
		switch ind.Name {
		case "RSI(14)":
			if ind.State != "oversold" || ind.Signal != SignalPositive {
				t.Fatalf("单边下跌应为超卖: %+v", ind)
			}
		case "MA5/MA10":
			if ind.Signal != SignalNegative {
				t.Fatalf("MA5 < MA10 应为死叉: %+v", ind)
			}
		}
	}

	flat := make([]float64, 15)
	for i := range flat {
		flat[i] = 10
	}
	for _, ind := range Compute(flat, Settings{}) {
		if ind.Name == "MA5/MA10" && ind.Signal != SignalNeutral {
			t.Fatalf("均线相等应为中性: %+v", ind)
		}
	}
}

func TestComputeIsReproducible(t *testing.T) {
	prices := []float64{10.1, 10.4, 10.2, 10.9, 11.3, 11.0, 10.7, 10.95, 11.4, 11.8, 11.2, 11.6, 12.0, 11.7, 11.9}
	a := Compute(prices, Settings{})
	b := Compute(prices, Settings{})
	if len(a) != len(b) {
		t.Fatalf("重复计算结果数量不一致")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("重复计算结果不一致: %+v vs %+v", a[i], b[i])
		}
	}
}

func TestMovingAverageSeries(t *testing.T) {
	got := MovingAverageSeries([]float64{1, 2, 3, 4, 5}, 3)
	if len(got) != 5 {
		t.Fatalf("长度应与输入一致: %d", len(got))
	}
	if got[0].Valid || got[1].Valid {
		t.Fatalf("预热期应为缺失: %+v", got[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		v := got[i+2]
		if !v.Valid || math.Abs(v.V-w) > 1e-9 {
			t.Fatalf("均线值异常 idx=%d got=%+v want=%v", i+2, v, w)
		}
	}
	short := MovingAverageSeries([]float64{1, 2}, 5)
	for _, v := range short {
		if v.Valid {
			t.Fatalf("窗口不足时应全部缺失")
		}
	}
}
