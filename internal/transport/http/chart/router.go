package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeboard/internal/analysis/flow"
	chartview "tradeboard/internal/chart"
	"tradeboard/internal/logger"
	"tradeboard/internal/market"
	"tradeboard/internal/series"
	"tradeboard/internal/store"
)

// Cache 内存缓存，通常是 *store.Memory。
type Cache interface {
	store.SeriesStore
	store.CandleStore
	Delete(ctx context.Context, id string) error
	IDs() []string
}

// SnapshotStore 持久化的序列快照，通常是 *database.SeriesStore。
type SnapshotStore interface {
	LoadSeries(ctx context.Context, id, start, end string) (series.NamedSeries, error)
	ListSeries(ctx context.Context) ([]string, error)
	DeleteSeries(ctx context.Context, id string) error
}

// FlowFetcher 按 agent 拉取资金流水，通常是 *backend.Client。
type FlowFetcher interface {
	FetchFlows(ctx context.Context, agentID string) ([]flow.Entry, error)
}

// Deps Router 依赖，Snapshots、Market 与 Flows 可以为空。
type Deps struct {
	Builder     *chartview.Builder
	Cache       Cache
	Snapshots   SnapshotStore
	Market      market.Source
	Flows       FlowFetcher
	CandleLimit int
	MaxPoints   int
}

// Router 图表接口
type Router struct {
	deps Deps
}

func NewRouter(deps Deps) *Router {
	if deps.Builder == nil {
		deps.Builder = chartview.NewBuilder(chartview.Options{})
	}
	if deps.Cache == nil {
		deps.Cache = store.NewMemory()
	}
	return &Router{deps: deps}
}

// Register 注册 /chart 与 /series 路由
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/chart/assets", r.handleAssets)
	group.GET("/chart/assets", r.handleStoredAssets)
	group.POST("/chart/kline", r.handleKLine)
	group.POST("/chart/flows", r.handleFlows)
	group.GET("/chart/flows/:agent", r.handleAgentFlows)
	group.GET("/chart/page", r.handlePage)
	group.GET("/series", r.handleListSeries)
	group.GET("/series/:id", r.handleSeries)
	group.PUT("/series/:id", r.handlePutSeries)
	group.DELETE("/series/:id", r.handleDeleteSeries)
}

func (r *Router) handleAssets(c *gin.Context) {
	var req chartview.AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, r.deps.Builder.Assets(req))
}

// handleStoredAssets GET /chart/assets?series=a,b&start=&end=
func (r *Router) handleStoredAssets(c *gin.Context) {
	req, status, err := r.storedRequest(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, r.deps.Builder.Assets(req))
}

func (r *Router) storedRequest(c *gin.Context) (chartview.AssetRequest, int, error) {
	ids := splitIDs(c.Query("series"))
	req := chartview.AssetRequest{
		Title:  c.Query("title"),
		Start:  c.Query("start"),
		End:    c.Query("end"),
		Metric: c.Query("metric"),
	}
	if len(ids) == 0 {
		return req, http.StatusBadRequest, errors.New("series 参数必填")
	}
	switch req.Metric {
	case "", chartview.MetricAsset, chartview.MetricReturn:
	default:
		return req, http.StatusBadRequest, fmt.Errorf("metric 只能是 asset 或 return: %s", req.Metric)
	}
	if v := c.Query("color_by_name"); v != "" {
		byName := v == "1" || strings.EqualFold(v, "true")
		req.ColorByName = &byName
	}
	for _, id := range ids {
		ns, err := r.resolve(c.Request.Context(), id, req.Start, req.End)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return req, http.StatusNotFound, fmt.Errorf("series %s 不存在", id)
			}
			logger.Errorf("[chart-api] load %s failed: %v", id, err)
			return req, http.StatusInternalServerError, err
		}
		req.Series = append(req.Series, ns)
	}
	return req, http.StatusOK, nil
}

// resolve 先查内存缓存，再查 SQLite 快照。
func (r *Router) resolve(ctx context.Context, id, start, end string) (series.NamedSeries, error) {
	var snap series.NamedSeries
	var snapErr error = store.ErrNotFound
	if r.deps.Snapshots != nil {
		snap, snapErr = r.deps.Snapshots.LoadSeries(ctx, id, start, end)
		if snapErr != nil && !errors.Is(snapErr, store.ErrNotFound) {
			return snap, snapErr
		}
	}
	points, err := r.deps.Cache.Get(ctx, id)
	switch {
	case err == nil:
		if snapErr != nil {
			snap = series.NamedSeries{ID: id, Label: id}
		}
		snap.Points = points
		return snap, nil
	case errors.Is(err, store.ErrNotFound):
		return snap, snapErr
	default:
		return snap, err
	}
}

func (r *Router) handleKLine(c *gin.Context) {
	var req chartview.KLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	if len(req.Candles) == 0 {
		candles, status, err := r.loadCandles(c.Request.Context(), req.Symbol)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		req.Candles = candles
	}
	c.JSON(http.StatusOK, r.deps.Builder.KLine(req))
}

// loadCandles 先查缓存，未命中时走外部数据源并回填缓存。
func (r *Router) loadCandles(ctx context.Context, symbol string) ([]market.Candle, int, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, http.StatusBadRequest, errors.New("symbol 或 candles 必填")
	}
	candles, err := r.deps.Cache.Candles(ctx, symbol)
	if err == nil {
		return candles, http.StatusOK, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, http.StatusInternalServerError, err
	}
	if r.deps.Market == nil {
		return nil, http.StatusNotFound, fmt.Errorf("symbol %s 无 K 线数据", symbol)
	}
	candles, err = r.deps.Market.FetchDaily(ctx, symbol, r.deps.CandleLimit)
	if err != nil {
		logger.Warnf("[chart-api] %s fetch %s failed: %v", r.deps.Market.Name(), symbol, err)
		return nil, http.StatusBadGateway, err
	}
	if err := r.deps.Cache.PutCandles(ctx, symbol, candles, r.deps.MaxPoints); err != nil {
		logger.Warnf("[chart-api] cache %s failed: %v", symbol, err)
	}
	return candles, http.StatusOK, nil
}

func (r *Router) handleFlows(c *gin.Context) {
	var req struct {
		Entries []flow.Entry `json:"entries"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, flow.Breakdown(req.Entries))
}

// handleAgentFlows GET /chart/flows/:agent 从后端拉取流水后汇总。
func (r *Router) handleAgentFlows(c *gin.Context) {
	if r.deps.Flows == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "未配置后端，无法拉取资金流水"})
		return
	}
	id := c.Param("agent")
	entries, err := r.deps.Flows.FetchFlows(c.Request.Context(), id)
	if err != nil {
		logger.Warnf("[chart-api] fetch flows %s failed: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flow.Breakdown(entries))
}

// handlePage 直接返回 echarts 渲染后的 HTML。
func (r *Router) handlePage(c *gin.Context) {
	var (
		assets *chartview.AssetView
		kline  *chartview.KLineView
	)
	if c.Query("series") != "" {
		req, status, err := r.storedRequest(c)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		view := r.deps.Builder.Assets(req)
		assets = &view
	}
	if symbol := c.Query("symbol"); symbol != "" {
		candles, status, err := r.loadCandles(c.Request.Context(), symbol)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		view := r.deps.Builder.KLine(chartview.KLineRequest{Symbol: symbol, Candles: candles, Start: c.Query("start"), End: c.Query("end")})
		kline = &view
	}
	if assets == nil && kline == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "series 或 symbol 至少提供一个"})
		return
	}
	var buf bytes.Buffer
	if err := chartview.RenderHTML(&buf, assets, kline); err != nil {
		logger.Errorf("[chart-api] render failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handleListSeries 合并缓存与快照中的序列 id。
func (r *Router) handleListSeries(c *gin.Context) {
	ids := r.deps.Cache.IDs()
	if r.deps.Snapshots != nil {
		saved, err := r.deps.Snapshots.ListSeries(c.Request.Context())
		if err != nil {
			logger.Errorf("[chart-api] list snapshots failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ids = append(ids, saved...)
	}
	sort.Strings(ids)
	c.JSON(http.StatusOK, gin.H{"series": slices.Compact(ids)})
}

func (r *Router) handleSeries(c *gin.Context) {
	id := c.Param("id")
	ns, err := r.resolve(c.Request.Context(), id, c.Query("start"), c.Query("end"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("series %s 不存在", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ns.Points = series.Filter(ns.Points, c.Query("start"), c.Query("end"))
	c.JSON(http.StatusOK, ns)
}

// handlePutSeries 手动推送一段序列到缓存，按日期合并。
func (r *Router) handlePutSeries(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Points []series.DatedValue `json:"points" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	if err := r.deps.Cache.Put(c.Request.Context(), id, req.Points, r.deps.MaxPoints); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.Infof("[chart-api] series '%s' updated (%d points) by %s", id, len(req.Points), c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "points": len(req.Points)})
}

// handleDeleteSeries 同时清理缓存与快照，两处都没有时返回 404。
func (r *Router) handleDeleteSeries(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	found := false
	if err := r.deps.Cache.Delete(ctx, id); err == nil {
		found = true
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if r.deps.Snapshots != nil {
		if err := r.deps.Snapshots.DeleteSeries(ctx, id); err == nil {
			found = true
		} else if !errors.Is(err, store.ErrNotFound) {
			logger.Errorf("[chart-api] delete snapshot %s failed: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("series %s 不存在", id)})
		return
	}
	logger.Infof("[chart-api] series '%s' deleted by %s", id, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
