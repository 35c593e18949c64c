package series

// Gap 表示统一日期轴上连续缺失的一段。
type Gap struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// Gaps 扫描对齐后的值，返回所有连续缺失区间。
func Gaps(axis []string, values []Value) []Gap {
	n := min(len(axis), len(values))
	var gaps []Gap
	cursor := 0
	for cursor < n {
		if values[cursor].Valid {
			cursor++
			continue
		}
		start := cursor
		for cursor < n && !values[cursor].Valid {
			cursor++
		}
		gaps = append(gaps, Gap{From: axis[start], To: axis[cursor-1], Count: cursor - start})
	}
	return gaps
}

// Coverage 返回有效点数量与轴长度。
func Coverage(values []Value) (present, total int) {
	for _, v := range values {
		if v.Valid {
			present++
		}
	}
	return present, len(values)
}
