package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"tradeboard/internal/analysis/flow"
	"tradeboard/internal/logger"
	"tradeboard/internal/market"
	"tradeboard/internal/series"
)

// Agent 后端登记的模拟交易 agent。
type Agent struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	InitialCapital *float64 `json:"initial_capital,omitempty"`
}

// Config 后端连接参数。
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	Concurrency int
}

// Client 看板后端 REST 客户端。
type Client struct {
	base        string
	rest        *resty.Client
	concurrency int
}

func New(cfg Config) *Client {
	r := resty.New()
	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	} else {
		r.SetTimeout(15 * time.Second)
	}
	r.SetHeader("Accept", "application/json")
	if token := strings.TrimSpace(cfg.Token); token != "" {
		r.SetAuthToken(token)
	}
	n := cfg.Concurrency
	if n <= 0 {
		n = 4
	}
	return &Client{base: strings.TrimRight(cfg.BaseURL, "/"), rest: r, concurrency: n}
}

// ListAgents GET /api/agents
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := c.get(ctx, "/api/agents", nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// FetchAssets GET /api/agents/{id}/assets，返回按日期规范化后的资产点。
func (c *Client) FetchAssets(ctx context.Context, agentID, start, end string) ([]series.DatedValue, error) {
	params := map[string]string{}
	if start != "" {
		params["start"] = start
	}
	if end != "" {
		params["end"] = end
	}
	var points []series.DatedValue
	if err := c.get(ctx, "/api/agents/"+url.PathEscape(agentID)+"/assets", params, &points); err != nil {
		return nil, err
	}
	return series.Normalize(points), nil
}

// FetchKLine GET /api/stocks/{code}/kline
func (c *Client) FetchKLine(ctx context.Context, code string) ([]market.Candle, error) {
	var candles []market.Candle
	if err := c.get(ctx, "/api/stocks/"+url.PathEscape(code)+"/kline", nil, &candles); err != nil {
		return nil, err
	}
	return market.Candles(candles).Normalize(), nil
}

// FetchFlows GET /api/agents/{id}/flows
func (c *Client) FetchFlows(ctx context.Context, agentID string) ([]flow.Entry, error) {
	var entries []flow.Entry
	if err := c.get(ctx, "/api/agents/"+url.PathEscape(agentID)+"/flows", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchMany 并发拉取多个 agent 的资产曲线，结果顺序与 agents 一致。
// 任一请求失败即取消其余请求并返回首个错误。
func (c *Client) FetchMany(ctx context.Context, agents []Agent, start, end string) ([]series.NamedSeries, error) {
	out := make([]series.NamedSeries, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, a := range agents {
		i, a := i, a
		g.Go(func() error {
			points, err := c.FetchAssets(gctx, a.ID, start, end)
			if err != nil {
				return fmt.Errorf("agent %s: %w", a.ID, err)
			}
			out[i] = series.NamedSeries{ID: a.ID, Label: a.Name, Points: points, Baseline: a.InitialCapital}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchDaily 让后端 K 线接口也能作为 market.Source 使用。
func (c *Client) FetchDaily(ctx context.Context, symbol string, limit int) ([]market.Candle, error) {
	candles, err := c.FetchKLine(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (c *Client) Name() string { return "backend" }

func (c *Client) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	if c.base == "" {
		return fmt.Errorf("backend base url 未配置")
	}
	started := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get(c.base + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	logger.Debugf("[backend] GET %s -> %d (%s)", path, resp.StatusCode(), time.Since(started))
	if resp.IsError() {
		return fmt.Errorf("backend %s: status %d, body: %s", path, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
