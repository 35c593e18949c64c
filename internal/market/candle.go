package market

import "sort"

// Candle 日 K 线，Date 采用 YYYY-MM-DD。
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}

// Candles wraps a slice of Candle for helper methods.
type Candles []Candle

// Normalize 按日期升序去重，同日以后出现的为准，不修改原切片。
func (cs Candles) Normalize() Candles {
	idx := make(map[string]int, len(cs))
	out := make(Candles, 0, len(cs))
	for _, c := range cs {
		if i, ok := idx[c.Date]; ok {
			out[i] = c
			continue
		}
		idx[c.Date] = len(out)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Closes 收盘价数组。
func (cs Candles) Closes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// Dates 日期数组。
func (cs Candles) Dates() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Date
	}
	return out
}

// Between 保留 [start, end] 闭区间内的 K 线，空字符串表示不限。
func (cs Candles) Between(start, end string) Candles {
	out := make(Candles, 0, len(cs))
	for _, c := range cs {
		if start != "" && c.Date < start {
			continue
		}
		if end != "" && c.Date > end {
			continue
		}
		out = append(out, c)
	}
	return out
}
