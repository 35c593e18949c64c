package chart

import (
	"strconv"
	"time"

	"tradeboard/internal/analysis/bounds"
	"tradeboard/internal/analysis/indicator"
	"tradeboard/internal/market"
	"tradeboard/internal/metrics"
	"tradeboard/internal/palette"
	"tradeboard/internal/series"
)

// Options Builder 的固定参数，来自配置。
type Options struct {
	Palette         palette.Palette
	DefaultBaseline float64
	ColorByName     bool
	Indicators      indicator.Settings
	Currency        bounds.Options
	Percent         bounds.Options
	Price           bounds.Options
	Metrics         *metrics.Metrics
}

// Builder 把规范化、对齐、衍生指标、坐标轴与配色串成图表视图。
// 无内部状态，可并发调用。
type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	if len(opts.Palette) == 0 {
		opts.Palette = palette.Default
	}
	if opts.DefaultBaseline <= 0 {
		opts.DefaultBaseline = indicator.DefaultBaseline
	}
	if opts.Currency == (bounds.Options{}) {
		opts.Currency = bounds.Currency()
	}
	if opts.Percent == (bounds.Options{}) {
		opts.Percent = bounds.Percent()
	}
	if opts.Price == (bounds.Options{}) {
		opts.Price = bounds.Price()
	}
	opts.Indicators = opts.Indicators.Normalize()
	return &Builder{opts: opts}
}

// AssetRequest 多 agent 资产曲线请求。
type AssetRequest struct {
	Title           string               `json:"title,omitempty"`
	Series          []series.NamedSeries `json:"series"`
	Start           string               `json:"start,omitempty"`
	End             string               `json:"end,omitempty"`
	ColorByName     *bool                `json:"color_by_name,omitempty"`
	DefaultBaseline float64              `json:"default_baseline,omitempty"`
	Metric          string               `json:"metric,omitempty"` // asset / return，空表示两者都画
}

// DerivedSeries 对齐后的序列及其衍生指标。
type DerivedSeries struct {
	ID         string                `json:"id"`
	Label      string                `json:"label"`
	Color      string                `json:"color"`
	Baseline   float64               `json:"baseline"`
	Values     []series.Value        `json:"values"`
	ReturnRate []series.Value        `json:"return_rate"`
	Indicators []indicator.Indicator `json:"indicators,omitempty"`
	Gaps       []series.Gap          `json:"gaps,omitempty"`
}

// AssetView 资产/收益率图所需的全部数据。
type AssetView struct {
	Title       string          `json:"title,omitempty"`
	Metric      string          `json:"metric,omitempty"`
	Dates       []string        `json:"dates"`
	Series      []DerivedSeries `json:"series"`
	ValueRange  bounds.Range    `json:"value_range"`
	ReturnRange bounds.Range    `json:"return_range"`
}

// Assets 构建资产曲线视图。
func (b *Builder) Assets(req AssetRequest) AssetView {
	started := time.Now()
	fallback := b.opts.DefaultBaseline
	if req.DefaultBaseline > 0 {
		fallback = req.DefaultBaseline
	}
	byName := b.opts.ColorByName
	if req.ColorByName != nil {
		byName = *req.ColorByName
	}

	filtered := make([]series.NamedSeries, len(req.Series))
	points := 0
	for i, s := range req.Series {
		s.Points = series.Filter(s.Points, req.Start, req.End)
		filtered[i] = s
		points += len(s.Points)
	}
	matrix := series.Align(filtered)

	view := AssetView{
		Title:  req.Title,
		Metric: req.Metric,
		Dates:  matrix.Dates,
		Series: make([]DerivedSeries, len(filtered)),
	}
	values := make([][]series.Value, 0, len(filtered))
	returns := make([][]series.Value, 0, len(filtered))
	for i, s := range filtered {
		aligned := matrix.Series[i]
		baseline := indicator.ResolveBaseline(s.Baseline, s.Points, fallback)
		key := ""
		if byName {
			key = s.Label
			if key == "" {
				key = s.ID
			}
		}
		d := DerivedSeries{
			ID:         s.ID,
			Label:      s.Label,
			Color:      b.opts.Palette.Resolve(i, key, s.Color),
			Baseline:   baseline,
			Values:     aligned.Values,
			ReturnRate: indicator.ReturnRates(aligned.Values, baseline),
			Indicators: indicator.Compute(series.Floats(aligned.Values), b.opts.Indicators),
			Gaps:       series.Gaps(matrix.Dates, aligned.Values),
		}
		view.Series[i] = d
		values = append(values, d.Values)
		returns = append(returns, d.ReturnRate)
	}
	view.ValueRange, _ = bounds.Estimate(b.opts.Currency, values...)
	view.ReturnRange, _ = bounds.Estimate(b.opts.Percent, returns...)
	b.opts.Metrics.ObserveBuild("assets", started, points)
	return view
}

// KLineRequest 单只标的的日 K 线请求。
type KLineRequest struct {
	Symbol  string          `json:"symbol"`
	Candles []market.Candle `json:"candles"`
	Start   string          `json:"start,omitempty"`
	End     string          `json:"end,omitempty"`
}

// Overlay 叠加在 K 线上的指标线。
type Overlay struct {
	Name   string         `json:"name"`
	Color  string         `json:"color"`
	Values []series.Value `json:"values"`
}

// KLineView K 线图所需数据，OHLC 按 [open, close, low, high] 排列。
type KLineView struct {
	Symbol     string                `json:"symbol"`
	Dates      []string              `json:"dates"`
	OHLC       [][4]float64          `json:"ohlc"`
	Volume     []float64             `json:"volume"`
	Overlays   []Overlay             `json:"overlays"`
	PriceRange bounds.Range          `json:"price_range"`
	Indicators []indicator.Indicator `json:"indicators,omitempty"`
}

// KLine 构建 K 线视图：均线叠加、价格轴与指标面板。
func (b *Builder) KLine(req KLineRequest) KLineView {
	started := time.Now()
	candles := market.Candles(req.Candles).Between(req.Start, req.End).Normalize()
	closes := candles.Closes()

	view := KLineView{
		Symbol: req.Symbol,
		Dates:  candles.Dates(),
		OHLC:   make([][4]float64, len(candles)),
		Volume: make([]float64, len(candles)),
	}
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		view.OHLC[i] = [4]float64{c.Open, c.Close, c.Low, c.High}
		view.Volume[i] = c.Volume
		highs[i] = c.High
		lows[i] = c.Low
	}
	ma := b.opts.Indicators.MA
	for i, w := range []int{ma.Fast, ma.Slow} {
		view.Overlays = append(view.Overlays, Overlay{
			Name:   maName(w),
			Color:  b.opts.Palette.ByIndex(i),
			Values: indicator.MovingAverageSeries(closes, w),
		})
	}
	view.PriceRange, _ = bounds.EstimateFloats(b.opts.Price, highs, lows)
	view.Indicators = indicator.Compute(closes, b.opts.Indicators)
	b.opts.Metrics.ObserveBuild("kline", started, len(candles))
	return view
}

func maName(w int) string { return "MA" + strconv.Itoa(w) }
