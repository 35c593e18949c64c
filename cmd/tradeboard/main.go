package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tradeboard/internal/agent"
	"tradeboard/internal/chart"
	"tradeboard/internal/config"
	"tradeboard/internal/gateway/backend"
	"tradeboard/internal/gateway/binance"
	"tradeboard/internal/gateway/database"
	"tradeboard/internal/logger"
	"tradeboard/internal/market"
	"tradeboard/internal/metrics"
	"tradeboard/internal/palette"
	"tradeboard/internal/series"
	"tradeboard/internal/server"
	"tradeboard/internal/store"
	chartapi "tradeboard/internal/transport/http/chart"
	"tradeboard/internal/transport/http/preset"
)

const usage = `usage: tradeboard <command> [flags]

commands:
  serve   run the HTTP API and the optional backend sync loop
  render  write an HTML (and optional PNG) chart for a set of series
  table   print the indicator table for a set of series
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(ctx, args)
	case "render":
		err = runRender(ctx, args)
	case "table":
		err = runTable(ctx, args)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newBuilder(cfg *config.Config, m *metrics.Metrics) *chart.Builder {
	return chart.NewBuilder(chart.Options{
		Palette:         palette.New(cfg.Chart.Palette),
		DefaultBaseline: cfg.Chart.DefaultBaseline,
		ColorByName:     cfg.Chart.ColorByName,
		Indicators:      cfg.Chart.Indicators,
		Currency:        cfg.Chart.Currency,
		Percent:         cfg.Chart.Percent,
		Price:           cfg.Chart.Price,
		Metrics:         m,
	})
}

func newBackend(cfg *config.Config) *backend.Client {
	if cfg.Backend.BaseURL == "" {
		return nil
	}
	return backend.New(backend.Config{
		BaseURL:     cfg.Backend.BaseURL,
		Token:       cfg.Backend.Token,
		Timeout:     cfg.Backend.Timeout(),
		Concurrency: cfg.Backend.Concurrency,
	})
}

// newMarket 优先使用 Binance，否则退回后端的 K 线接口。
func newMarket(cfg *config.Config, client *backend.Client) market.Source {
	if cfg.Binance.Enabled {
		return binance.New(binance.Config{BaseURL: cfg.Binance.BaseURL, Limit: cfg.Binance.Limit})
	}
	if client != nil {
		return client
	}
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "tradeboard.toml", "config file")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	m := metrics.New()
	mem := store.NewMemory()

	deps := chartapi.Deps{
		Builder:     newBuilder(cfg, m),
		Cache:       mem,
		CandleLimit: cfg.Binance.Limit,
		MaxPoints:   cfg.Store.MaxPoints,
	}
	var snapshots *database.SeriesStore
	if cfg.Store.SQLitePath != "" {
		snapshots, err = database.Open(cfg.Store.SQLitePath)
		if err != nil {
			logger.Warnf("sqlite unavailable, continuing without snapshots: %v", err)
		} else {
			defer snapshots.Close()
			deps.Snapshots = snapshots
		}
	}
	client := newBackend(cfg)
	if src := newMarket(cfg, client); src != nil {
		deps.Market = src
	}
	if client != nil {
		deps.Flows = client
	}

	srv, err := server.NewHTTPServer(server.HTTPConfig{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout(),
		Chart:           chartapi.NewRouter(deps),
		Presets:         preset.NewRouter(cfg.Presets.Path),
		Metrics:         m,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	if client != nil && cfg.Backend.SyncInterval() > 0 {
		params := agent.SyncerParams{
			Fetcher:   client,
			Cache:     mem,
			Agents:    cfg.Backend.Agents,
			MaxPoints: cfg.Store.MaxPoints,
			Interval:  cfg.Backend.SyncInterval(),
			Metrics:   m,
		}
		if snapshots != nil {
			params.Snapshots = snapshots
		}
		syncer := agent.NewSyncer(params)
		g.Go(func() error { return syncer.Run(gctx) })
		logger.Infof("backend sync every %s from %s", cfg.Backend.SyncInterval(), cfg.Backend.BaseURL)
	}
	return g.Wait()
}

type viewFlags struct {
	cfgPath string
	series  string
	symbol  string
	start   string
	end     string
	title   string
	metric  string
}

func (v *viewFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&v.cfgPath, "config", "tradeboard.toml", "config file")
	fs.StringVar(&v.series, "series", "", "comma separated agent/series ids (empty = all agents)")
	fs.StringVar(&v.symbol, "symbol", "", "daily K-line symbol")
	fs.StringVar(&v.start, "start", "", "start date YYYY-MM-DD")
	fs.StringVar(&v.end, "end", "", "end date YYYY-MM-DD")
	fs.StringVar(&v.title, "title", "", "chart title")
	fs.StringVar(&v.metric, "metric", "", "asset or return (empty = both)")
}

// loadSeries 后端可用时直接拉取，否则读取 SQLite 快照。
func loadSeries(ctx context.Context, cfg *config.Config, client *backend.Client, ids []string, start, end string) ([]series.NamedSeries, error) {
	if client != nil {
		agents, err := client.ListAgents(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			byID := make(map[string]backend.Agent, len(agents))
			for _, a := range agents {
				byID[a.ID] = a
			}
			picked := make([]backend.Agent, 0, len(ids))
			for _, id := range ids {
				a, ok := byID[id]
				if !ok {
					return nil, fmt.Errorf("agent %s: %w", id, store.ErrNotFound)
				}
				picked = append(picked, a)
			}
			agents = picked
		}
		return client.FetchMany(ctx, agents, start, end)
	}

	db, err := database.Open(cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if len(ids) == 0 {
		if ids, err = db.ListSeries(ctx); err != nil {
			return nil, err
		}
	}
	out := make([]series.NamedSeries, 0, len(ids))
	for _, id := range ids {
		ns, err := db.LoadSeries(ctx, id, start, end)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", id, err)
		}
		out = append(out, ns)
	}
	return out, nil
}

func buildViews(ctx context.Context, v viewFlags) (*chart.AssetView, *chart.KLineView, error) {
	cfg, err := loadConfig(v.cfgPath)
	if err != nil {
		return nil, nil, err
	}
	builder := newBuilder(cfg, nil)
	client := newBackend(cfg)

	var ids []string
	for _, id := range strings.Split(v.series, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	list, err := loadSeries(ctx, cfg, client, ids, v.start, v.end)
	if err != nil {
		return nil, nil, err
	}
	assets := builder.Assets(chart.AssetRequest{Title: v.title, Series: list, Start: v.start, End: v.end, Metric: v.metric})

	var kline *chart.KLineView
	if v.symbol != "" {
		src := newMarket(cfg, client)
		if src == nil {
			return nil, nil, errors.New("no K-line source configured (enable [binance] or set [backend].base_url)")
		}
		candles, err := src.FetchDaily(ctx, v.symbol, cfg.Binance.Limit)
		if err != nil {
			return nil, nil, err
		}
		view := builder.KLine(chart.KLineRequest{Symbol: v.symbol, Candles: candles, Start: v.start, End: v.end})
		kline = &view
	}
	return &assets, kline, nil
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var v viewFlags
	v.bind(fs)
	out := fs.String("out", "tradeboard.html", "HTML output path")
	png := fs.String("png", "", "optional PNG snapshot path (needs Chrome)")
	_ = fs.Parse(args)

	assets, kline, err := buildViews(ctx, v)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := chart.RenderHTML(f, assets, kline); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Infof("wrote %s (%d series, %d dates)", *out, len(assets.Series), len(assets.Dates))

	if *png != "" {
		shot, err := chart.Snapshot(ctx, assets, kline, chart.SnapshotOptions{Timeout: time.Minute})
		if err != nil {
			return err
		}
		if err := os.WriteFile(*png, shot, 0o644); err != nil {
			return err
		}
		logger.Infof("wrote %s", *png)
	}
	return nil
}

func runTable(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("table", flag.ExitOnError)
	var v viewFlags
	v.bind(fs)
	_ = fs.Parse(args)

	assets, _, err := buildViews(ctx, v)
	if err != nil {
		return err
	}
	fmt.Println(chart.IndicatorTable(*assets))
	return nil
}
