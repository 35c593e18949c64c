package series

import (
	"slices"
	"sort"
)

// UnifyAxis 合并多条序列的日期，返回排序后的并集。
func UnifyAxis(list ...[]DatedValue) []string {
	total := 0
	for _, pts := range list {
		total += len(pts)
	}
	dates := make([]string, 0, total)
	for _, pts := range list {
		for _, p := range pts {
			dates = append(dates, p.Date)
		}
	}
	sort.Strings(dates)
	return slices.Compact(dates)
}

// Reindex 将序列投影到统一日期轴，轴上缺失的日期输出 None。
// axis 必须已排序去重（UnifyAxis 的输出）。
func Reindex(axis []string, points []DatedValue) []Value {
	norm := Normalize(points)
	out := make([]Value, len(axis))
	j := 0
	for i, d := range axis {
		for j < len(norm) && norm[j].Date < d {
			j++
		}
		if j < len(norm) && norm[j].Date == d {
			out[i] = Some(norm[j].Value)
			j++
		}
	}
	return out
}

// Align 依次完成规范化、合并日期轴与投影，输出顺序与输入一致。
func Align(list []NamedSeries) Matrix {
	normalized := make([][]DatedValue, len(list))
	for i, s := range list {
		normalized[i] = Normalize(s.Points)
	}
	axis := UnifyAxis(normalized...)
	m := Matrix{
		Dates:  axis,
		Series: make([]Aligned, len(list)),
	}
	for i, s := range list {
		m.Series[i] = Aligned{
			ID:     s.ID,
			Label:  s.Label,
			Values: Reindex(axis, normalized[i]),
		}
	}
	return m
}
