package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"tradeboard/internal/series"
)

// echarts 把 "-" 视为空点，折线在此断开
const gapMarker = "-"

const (
	MetricAsset  = "asset"
	MetricReturn = "return"
)

// AssetLineChart 资产曲线或收益率曲线。returns=true 时使用收益率轴。
func AssetLineChart(view AssetView, returns bool) *charts.Line {
	line := charts.NewLine()
	title := view.Title
	if title == "" {
		title = "Total assets"
	}
	rng := view.ValueRange
	if returns {
		title += " (return %)"
		rng = view.ReturnRange
	}
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithYAxisOpts(opts.YAxis{Min: rng.Min, Max: rng.Max}),
	)
	line.SetXAxis(view.Dates)
	for _, s := range view.Series {
		values := s.Values
		if returns {
			values = s.ReturnRate
		}
		name := s.Label
		if name == "" {
			name = s.ID
		}
		line.AddSeries(name, lineData(values),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		)
	}
	return line
}

// KLineChart 日 K 线叠加均线。
func KLineChart(view KLineView) *charts.Kline {
	k := charts.NewKLine()
	k.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: view.Symbol}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: view.PriceRange.Min, Max: view.PriceRange.Max}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
	)
	data := make([]opts.KlineData, len(view.OHLC))
	for i, row := range view.OHLC {
		data[i] = opts.KlineData{Value: row}
	}
	k.SetXAxis(view.Dates).AddSeries("kline", data)

	if len(view.Overlays) > 0 {
		overlay := charts.NewLine()
		overlay.SetXAxis(view.Dates)
		for _, o := range view.Overlays {
			overlay.AddSeries(o.Name, lineData(o.Values),
				charts.WithLineStyleOpts(opts.LineStyle{Color: o.Color}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: o.Color}),
			)
		}
		k.Overlap(overlay)
	}
	return k
}

// RenderHTML 输出包含资产、收益率与可选 K 线的单页 HTML。
func RenderHTML(w io.Writer, assets *AssetView, kline *KLineView) error {
	page := components.NewPage()
	page.PageTitle = "tradeboard"
	if assets != nil {
		if assets.Metric != MetricReturn {
			page.AddCharts(AssetLineChart(*assets, false))
		}
		if assets.Metric != MetricAsset {
			page.AddCharts(AssetLineChart(*assets, true))
		}
	}
	if kline != nil {
		page.AddCharts(KLineChart(*kline))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}
	return nil
}

func lineData(values []series.Value) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if !v.Valid {
			out[i] = opts.LineData{Value: gapMarker}
			continue
		}
		out[i] = opts.LineData{Value: v.V}
	}
	return out
}
