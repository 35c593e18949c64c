package chart

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"tradeboard/internal/series"
)

// IndicatorTable 把资产视图渲染为终端表格：最新值、收益率、缺口与指标。
func IndicatorTable(view AssetView) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	if view.Title != "" {
		t.SetTitle(view.Title)
	}
	t.AppendHeader(table.Row{"Series", "Latest", "Return %", "Coverage", "Indicator", "Value", "Signal"})
	for _, s := range view.Series {
		latest, ret := "-", "-"
		if v, ok := lastValid(s.Values); ok {
			latest = fmt.Sprintf("%.2f", v)
		}
		if v, ok := lastValid(s.ReturnRate); ok {
			ret = fmt.Sprintf("%+.2f", v)
		}
		present, total := series.Coverage(s.Values)
		coverage := fmt.Sprintf("%d/%d", present, total)
		name := s.Label
		if name == "" {
			name = s.ID
		}
		if len(s.Indicators) == 0 {
			t.AppendRow(table.Row{name, latest, ret, coverage, "-", "-", "-"})
			continue
		}
		for i, ind := range s.Indicators {
			if i == 0 {
				t.AppendRow(table.Row{name, latest, ret, coverage, ind.Name, ind.Value, string(ind.Signal)})
				continue
			}
			t.AppendRow(table.Row{"", "", "", "", ind.Name, ind.Value, string(ind.Signal)})
		}
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", "", "", "", "axis", fmt.Sprintf("%.2f ~ %.2f", view.ValueRange.Min, view.ValueRange.Max), ""})
	return t.Render()
}

func lastValid(values []series.Value) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i].Valid {
			return values[i].V, true
		}
	}
	return 0, false
}
