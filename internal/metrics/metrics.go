// Package metrics 定义 tradeboard 的 Prometheus 指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 图表计算与 HTTP 相关指标。
type Metrics struct {
	BuildDuration *prometheus.HistogramVec // 单次视图构建耗时
	PointsTotal   *prometheus.CounterVec   // 参与对齐的数据点数量
	HTTPRequests  *prometheus.CounterVec   // HTTP 请求数（按路由与状态码）
	SyncErrors    prometheus.Counter       // 后台同步失败次数
}

// New 使用默认 registry。
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry 使用指定 registry，测试中可隔离。
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		BuildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradeboard_chart_build_seconds",
			Help:    "Time spent building a chart view",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"view"}),
		PointsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeboard_chart_points_total",
			Help: "Number of input points aligned per view",
		}, []string{"view"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeboard_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
		SyncErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradeboard_sync_errors_total",
			Help: "Backend sync failures",
		}),
	}
}

// ObserveBuild 记录一次视图构建。nil 接收者直接忽略。
func (m *Metrics) ObserveBuild(view string, started time.Time, points int) {
	if m == nil {
		return
	}
	m.BuildDuration.WithLabelValues(view).Observe(time.Since(started).Seconds())
	m.PointsTotal.WithLabelValues(view).Add(float64(points))
}

// ObserveRequest 记录一次 HTTP 请求。
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// SyncFailed 记录一次同步失败。
func (m *Metrics) SyncFailed() {
	if m == nil {
		return
	}
	m.SyncErrors.Inc()
}
