package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"tradeboard/internal/series"
)

type Settings struct {
	RSI RSISettings `json:"rsi" toml:"rsi"`
	MA  MASettings  `json:"ma" toml:"ma"`
}

type RSISettings struct {
	Period     int     `json:"period,omitempty" toml:"period"`
	Overbought float64 `json:"overbought,omitempty" toml:"overbought"`
	Oversold   float64 `json:"oversold,omitempty" toml:"oversold"`
}

type MASettings struct {
	Fast int `json:"fast,omitempty" toml:"fast"`
	Slow int `json:"slow,omitempty" toml:"slow"`
}

// Signal 面板展示用的方向标记。
type Signal string

const (
	SignalPositive Signal = "positive"
	SignalNegative Signal = "negative"
	SignalNeutral  Signal = "neutral"
)

// Indicator 面板上的一条指标摘要。
type Indicator struct {
	Name   string  `json:"name"`
	Value  string  `json:"value"`
	Signal Signal  `json:"signal"`
	State  string  `json:"state,omitempty"`
	Latest float64 `json:"latest"`
}

// Normalize 补齐默认阈值：RSI 14 / 70 / 30，均线 5 / 10。
func (s Settings) Normalize() Settings {
	out := s
	if out.RSI.Period <= 0 {
		out.RSI.Period = 14
	}
	if out.RSI.Overbought == 0 {
		out.RSI.Overbought = 70
	}
	if out.RSI.Oversold == 0 {
		out.RSI.Oversold = 30
	}
	if out.MA.Fast <= 0 {
		out.MA.Fast = 5
	}
	if out.MA.Slow <= 0 {
		out.MA.Slow = 10
	}
	return out
}

// Compute 基于序列尾部计算面板指标。窗口不足的指标直接省略。
func Compute(closes []float64, cfg Settings) []Indicator {
	cfg = cfg.Normalize()
	out := make([]Indicator, 0, 3)

	if chg, ok := ChangePercent(closes); ok {
		out = append(out, Indicator{
			Name:   "change",
			Value:  fmt.Sprintf("%+.2f%%", chg),
			Signal: polaritySignal(chg),
			Latest: chg,
		})
	}

	if rsi, ok := RSI(closes, cfg.RSI.Period); ok {
		state, sig := rsiState(rsi, cfg.RSI)
		out = append(out, Indicator{
			Name:   fmt.Sprintf("RSI(%d)", cfg.RSI.Period),
			Value:  fmt.Sprintf("%.2f", rsi),
			Signal: sig,
			State:  state,
			Latest: rsi,
		})
	}

	fast, okFast := SMA(closes, cfg.MA.Fast)
	slow, okSlow := SMA(closes, cfg.MA.Slow)
	if okFast && okSlow {
		state, sig := crossState(fast, slow)
		out = append(out, Indicator{
			Name:   fmt.Sprintf("MA%d/MA%d", cfg.MA.Fast, cfg.MA.Slow),
			Value:  fmt.Sprintf("%s (%.2f / %.2f)", state, fast, slow),
			Signal: sig,
			State:  state,
			Latest: fast - slow,
		})
	}
	return out
}

// SMA 最近 w 个值的算术平均。
func SMA(values []float64, w int) (float64, bool) {
	if w <= 0 || len(values) < w {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-w:] {
		sum += v
	}
	return sum / float64(w), true
}

// RSI 最近 period 个涨跌幅的简单平均版 RSI，需要 period+1 个值。
func RSI(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period+1 {
		return 0, false
	}
	tail := values[len(values)-period-1:]
	var gains, losses float64
	for i := 1; i < len(tail); i++ {
		d := tail[i] - tail[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	return 100 - 100/(1+avgGain/avgLoss), true
}

// ChangePercent 最新值相对前一个值的涨跌幅。
func ChangePercent(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	prev := values[len(values)-2]
	if prev == 0 {
		return 0, false
	}
	return (values[len(values)-1] - prev) / prev * 100, true
}

// MovingAverageSeries 输出完整均线，预热期内为 None。
func MovingAverageSeries(closes []float64, w int) []series.Value {
	out := make([]series.Value, len(closes))
	if w <= 0 || len(closes) < w {
		return out
	}
	ma := talib.Sma(closes, w)
	for i := w - 1; i < len(ma); i++ {
		if math.IsNaN(ma[i]) || math.IsInf(ma[i], 0) {
			continue
		}
		out[i] = series.Some(ma[i])
	}
	return out
}

func rsiState(v float64, cfg RSISettings) (string, Signal) {
	switch {
	case v > cfg.Overbought:
		return "overbought", SignalNegative
	case v < cfg.Oversold:
		return "oversold", SignalPositive
	default:
		return "neutral", SignalNeutral
	}
}

func crossState(fast, slow float64) (string, Signal) {
	switch {
	case fast > slow:
		return "golden cross", SignalPositive
	case fast < slow:
		return "death cross", SignalNegative
	default:
		return "flat", SignalNeutral
	}
}

func polaritySignal(v float64) Signal {
	switch {
	case v > 0:
		return SignalPositive
	case v < 0:
		return SignalNegative
	default:
		return SignalNeutral
	}
}
