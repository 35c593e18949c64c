// Package bounds 计算图表坐标轴的上下界。
//
// 上下界在数据极值基础上按比例留白；序列平坦或只有一个点时改用固定留白，
// 保证坐标轴高度始终大于 0。
package bounds

import (
	"math"

	"github.com/shopspring/decimal"

	"tradeboard/internal/series"
)

// Range 坐标轴范围，始终满足 Min < Max。
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Options 控制留白策略。
type Options struct {
	Ratio    float64 `json:"ratio" toml:"ratio"`         // 相对留白比例
	MinPad   float64 `json:"min_pad" toml:"min_pad"`     // 最小绝对留白
	Fallback float64 `json:"fallback" toml:"fallback"`   // 区间为 0 时的固定留白
	Round    bool    `json:"round" toml:"round"`         // 是否向外取整
	Decimals int32   `json:"decimals" toml:"decimals"`
}

// Currency 资产曲线：10% 留白，平坦时 ±1000。
func Currency() Options { return Options{Ratio: 0.10, Fallback: 1000} }

// Price K 线价格：15% 留白，平坦时 ±1。
func Price() Options { return Options{Ratio: 0.15, Fallback: 1} }

// Percent 收益率：20% 留白且至少 1 个百分点，保留一位小数。
func Percent() Options {
	return Options{Ratio: 0.20, MinPad: 1, Fallback: 1, Round: true, Decimals: 1}
}

func (o Options) normalize() Options {
	if o.Ratio <= 0 {
		o.Ratio = 0.10
	}
	if o.MinPad < 0 {
		o.MinPad = 0
	}
	if o.Fallback <= 0 {
		o.Fallback = 1
	}
	if o.Decimals < 0 {
		o.Decimals = 0
	}
	return o
}

// Estimate 忽略缺失点与 NaN/Inf。没有任何有效值时返回 (±Fallback, false)。
func Estimate(opts Options, arrays ...[]series.Value) (Range, bool) {
	opts = opts.normalize()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, arr := range arrays {
		for _, v := range arr {
			if !v.Valid || math.IsNaN(v.V) || math.IsInf(v.V, 0) {
				continue
			}
			lo = math.Min(lo, v.V)
			hi = math.Max(hi, v.V)
		}
	}
	if lo > hi {
		return Range{Min: -opts.Fallback, Max: opts.Fallback}, false
	}
	return pad(lo, hi, opts), true
}

// EstimateFloats 稠密数组版本。
func EstimateFloats(opts Options, arrays ...[]float64) (Range, bool) {
	wrapped := make([][]series.Value, len(arrays))
	for i, arr := range arrays {
		wrapped[i] = series.FromFloats(arr)
	}
	return Estimate(opts, wrapped...)
}

func pad(lo, hi float64, opts Options) Range {
	span := hi - lo
	p := span * opts.Ratio
	if p < opts.MinPad {
		p = opts.MinPad
	}
	if span == 0 {
		p = opts.Fallback
	}
	// 极值附近 span 或留白可能溢出为 Inf，先夹回有限区间再取整
	r := clamp(Range{Min: lo - p, Max: hi + p})
	if opts.Round {
		r.Min = decimal.NewFromFloat(r.Min).RoundFloor(opts.Decimals).InexactFloat64()
		r.Max = decimal.NewFromFloat(r.Max).RoundCeil(opts.Decimals).InexactFloat64()
	}
	if r.Max <= r.Min {
		// 数值过大时留白可能被浮点精度吞掉
		r = clamp(Range{Min: math.Nextafter(lo, math.Inf(-1)), Max: math.Nextafter(hi, math.Inf(1))})
		if r.Max <= r.Min {
			r.Min = math.Nextafter(r.Max, math.Inf(-1))
		}
	}
	return r
}

func clamp(r Range) Range {
	if math.IsInf(r.Min, 0) || math.IsNaN(r.Min) {
		r.Min = -math.MaxFloat64
	}
	if math.IsInf(r.Max, 0) || math.IsNaN(r.Max) {
		r.Max = math.MaxFloat64
	}
	return r
}
