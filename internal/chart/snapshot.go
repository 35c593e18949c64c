package chart

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"tradeboard/internal/logger"
)

// SnapshotOptions 无头浏览器截图参数。
type SnapshotOptions struct {
	Width   int64
	Height  int64
	Quality int
	Wait    time.Duration // 等待 echarts 动画完成
	Timeout time.Duration
}

func (o SnapshotOptions) withDefaults() SnapshotOptions {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 900
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 90
	}
	if o.Wait <= 0 {
		o.Wait = 800 * time.Millisecond
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// Snapshot 渲染 HTML 页面后用 chromedp 截取整页 PNG。
func Snapshot(ctx context.Context, assets *AssetView, kline *KLineView, opts SnapshotOptions) ([]byte, error) {
	opts = opts.withDefaults()
	var page bytes.Buffer
	if err := RenderHTML(&page, assets, kline); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "tradeboard-snapshot-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "index.html")
	if err := os.WriteFile(file, page.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("write snapshot page: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	browserCtx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	var buf []byte
	start := time.Now()
	err = chromedp.Run(browserCtx,
		chromedp.EmulateViewport(opts.Width, opts.Height),
		chromedp.Navigate("file://"+file),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(opts.Wait),
		chromedp.FullScreenshot(&buf, opts.Quality),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp snapshot: %w", err)
	}
	logger.Debugf("[chart] snapshot %d bytes in %s", len(buf), time.Since(start))
	return buf, nil
}
