package series

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DatedValue 单个日期上的观测值，Date 采用 YYYY-MM-DD。
type DatedValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// NamedSeries 某个实体（agent / 股票）的原始序列。
// Baseline 为 nil 表示未提供基准值。
type NamedSeries struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Points   []DatedValue `json:"points"`
	Baseline *float64     `json:"baseline,omitempty"`
	Color    string       `json:"color,omitempty"`
}

// Value 显式区分“无数据”与“值为 0”。
type Value struct {
	V     float64
	Valid bool
}

// Some 构造一个有效值。
func Some(v float64) Value { return Value{V: v, Valid: true} }

// None 表示该日期无数据。
func None() Value { return Value{} }

// MarshalJSON 无数据输出 null。
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.V, 'f', -1, 64)), nil
}

// UnmarshalJSON 接受 null 或数字。
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Aligned 投影到统一日期轴后的单条序列。
type Aligned struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Values []Value `json:"values"`
}

// Matrix 统一日期轴 + 每条序列对齐后的值。
type Matrix struct {
	Dates  []string  `json:"dates"`
	Series []Aligned `json:"series"`
}

// Floats 取出有效值，跳过缺失点。
func Floats(values []Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, v.V)
		}
	}
	return out
}

// FromFloats 把稠密数组包装为全部有效的 Value。
func FromFloats(values []float64) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = Some(v)
	}
	return out
}
