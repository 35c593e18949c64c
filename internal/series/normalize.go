package series

import (
	"sort"
	"strings"
)

// Normalize 按日期升序去重，同一日期以输入中较晚出现的为准。
// 日期按字符串比较，不做解析；输入切片不会被修改。
func Normalize(points []DatedValue) []DatedValue {
	idx := make(map[string]int, len(points))
	out := make([]DatedValue, 0, len(points))
	for _, p := range points {
		if i, ok := idx[p.Date]; ok {
			// 后到的覆盖先到的
			out[i].Value = p.Value
			continue
		}
		idx[p.Date] = len(out)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Filter 保留 [start, end] 闭区间内的点，空字符串表示该侧不限。
func Filter(points []DatedValue, start, end string) []DatedValue {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	out := make([]DatedValue, 0, len(points))
	for _, p := range points {
		if start != "" && p.Date < start {
			continue
		}
		if end != "" && p.Date > end {
			continue
		}
		out = append(out, p)
	}
	return out
}
