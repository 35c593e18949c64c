package indicator

import (
	"math"

	"tradeboard/internal/series"
)

// DefaultBaseline 未配置时的初始资金。
const DefaultBaseline = 20000.0

// ResolveBaseline 依次取显式基准、最早数据点、调用方默认值。
func ResolveBaseline(explicit *float64, points []series.DatedValue, fallback float64) float64 {
	if explicit != nil {
		return *explicit
	}
	if norm := series.Normalize(points); len(norm) > 0 {
		return norm[0].Value
	}
	return fallback
}

// ReturnRate 相对基准的收益率（百分比）。基准非正或结果溢出时返回 0。
func ReturnRate(v, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	r := (v - baseline) / baseline * 100
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return 0
	}
	return r
}

// ReturnRates 逐点换算收益率，缺失点保持缺失。
func ReturnRates(values []series.Value, baseline float64) []series.Value {
	out := make([]series.Value, len(values))
	for i, v := range values {
		if !v.Valid {
			continue
		}
		out[i] = series.Some(ReturnRate(v.V, baseline))
	}
	return out
}
