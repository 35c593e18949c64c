package palette

import (
	"strings"
	"unicode/utf16"
)

// Palette 有序调色板。
type Palette []string

// Default 默认十色调色板。
var Default = Palette{
	"#5470c6",
	"#91cc75",
	"#fac858",
	"#ee6666",
	"#73c0de",
	"#3ba272",
	"#fc8452",
	"#9a60b4",
	"#ea7ccc",
	"#2f4554",
}

// New 过滤空白项；过滤后为空则回退到 Default。
func New(colors []string) Palette {
	out := make(Palette, 0, len(colors))
	for _, c := range colors {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return Default
	}
	return out
}

// ByIndex 按位置取色，超出后循环。
func (p Palette) ByIndex(i int) string {
	p = p.orDefault()
	n := len(p)
	return p[((i%n)+n)%n]
}

// ByName 按名称哈希取色，同名总是同色。
func (p Palette) ByName(key string) string {
	p = p.orDefault()
	return p[int(Hash(key)%uint32(len(p)))]
}

// Resolve 显式颜色优先，其次名称哈希，最后按位置。
func (p Palette) Resolve(i int, key, override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	if key != "" {
		return p.ByName(key)
	}
	return p.ByIndex(i)
}

// Hash 按 UTF-16 码元做 (h*31 + c) mod 2^31 累加，与前端 charCodeAt 一致。
func Hash(key string) uint32 {
	var h uint32
	for _, c := range utf16.Encode([]rune(key)) {
		h = (h*31 + uint32(c)) & 0x7fffffff
	}
	return h
}

func (p Palette) orDefault() Palette {
	if len(p) == 0 {
		return Default
	}
	return p
}
