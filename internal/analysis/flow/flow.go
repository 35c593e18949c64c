package flow

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry 单笔资金流水，Amount 为正表示流入，为负表示流出。
type Entry struct {
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Bucket 单个类别的汇总。
type Bucket struct {
	Category string  `json:"category"`
	Inflow   float64 `json:"inflow"`
	Outflow  float64 `json:"outflow"`
	Net      float64 `json:"net"`
	SharePct float64 `json:"share_pct"` // 占总成交额（流入+流出绝对值）的百分比
	Count    int     `json:"count"`
}

// Summary 资金流向拆解。
type Summary struct {
	Buckets    []Bucket `json:"buckets"`
	Inflow     float64  `json:"inflow"`
	Outflow    float64  `json:"outflow"`
	Net        float64  `json:"net"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
	Categories int      `json:"categories"`
}

type accum struct {
	in, out decimal.Decimal
	count   int
}

// Breakdown 按类别汇总资金流入流出，使用 decimal 避免浮点累加误差。
// 类别按成交额降序、同额按名称排序；空类别归入 "other"。
func Breakdown(entries []Entry) Summary {
	groups := make(map[string]*accum)
	var sum Summary
	totalIn, totalOut := decimal.Zero, decimal.Zero
	for _, e := range entries {
		cat := strings.TrimSpace(e.Category)
		if cat == "" {
			cat = "other"
		}
		g, ok := groups[cat]
		if !ok {
			g = &accum{in: decimal.Zero, out: decimal.Zero}
			groups[cat] = g
		}
		amt := decimal.NewFromFloat(e.Amount)
		if amt.IsNegative() {
			g.out = g.out.Add(amt.Neg())
			totalOut = totalOut.Add(amt.Neg())
		} else {
			g.in = g.in.Add(amt)
			totalIn = totalIn.Add(amt)
		}
		g.count++
		if e.Date != "" {
			if sum.From == "" || e.Date < sum.From {
				sum.From = e.Date
			}
			if e.Date > sum.To {
				sum.To = e.Date
			}
		}
	}

	gross := totalIn.Add(totalOut)
	hundred := decimal.NewFromInt(100)
	sum.Buckets = make([]Bucket, 0, len(groups))
	grossOf := make(map[string]decimal.Decimal, len(groups))
	for cat, g := range groups {
		share := decimal.Zero
		vol := g.in.Add(g.out)
		if gross.IsPositive() {
			share = vol.Mul(hundred).Div(gross).Round(2)
		}
		grossOf[cat] = vol
		sum.Buckets = append(sum.Buckets, Bucket{
			Category: cat,
			Inflow:   g.in.InexactFloat64(),
			Outflow:  g.out.InexactFloat64(),
			Net:      g.in.Sub(g.out).InexactFloat64(),
			SharePct: share.InexactFloat64(),
			Count:    g.count,
		})
	}
	sort.Slice(sum.Buckets, func(i, j int) bool {
		a, b := grossOf[sum.Buckets[i].Category], grossOf[sum.Buckets[j].Category]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return sum.Buckets[i].Category < sum.Buckets[j].Category
	})
	sum.Inflow = totalIn.InexactFloat64()
	sum.Outflow = totalOut.InexactFloat64()
	sum.Net = totalIn.Sub(totalOut).InexactFloat64()
	sum.Categories = len(sum.Buckets)
	return sum
}
