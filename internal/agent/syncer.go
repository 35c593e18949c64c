// Package agent 周期性地把后端 agent 的资产曲线同步到本地缓存与快照。
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradeboard/internal/gateway/backend"
	"tradeboard/internal/logger"
	"tradeboard/internal/metrics"
	"tradeboard/internal/series"
	"tradeboard/internal/store"
)

// Fetcher 后端数据来源，通常是 *backend.Client。
type Fetcher interface {
	ListAgents(ctx context.Context) ([]backend.Agent, error)
	FetchMany(ctx context.Context, agents []backend.Agent, start, end string) ([]series.NamedSeries, error)
}

// SnapshotWriter 持久化快照，通常是 *database.SeriesStore。
type SnapshotWriter interface {
	SaveSeries(ctx context.Context, ns series.NamedSeries) error
}

type SyncerParams struct {
	Fetcher   Fetcher
	Cache     store.SeriesStore
	Snapshots SnapshotWriter // 可为空
	Agents    []string       // 为空表示同步全部 agent
	MaxPoints int
	Interval  time.Duration
	Metrics   *metrics.Metrics
}

type Syncer struct {
	fetcher   Fetcher
	cache     store.SeriesStore
	snapshots SnapshotWriter
	allow     map[string]struct{}
	maxPoints int
	interval  time.Duration
	metrics   *metrics.Metrics
}

func NewSyncer(p SyncerParams) *Syncer {
	if p.Fetcher == nil || p.Cache == nil {
		return nil
	}
	var allow map[string]struct{}
	for _, id := range p.Agents {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		if allow == nil {
			allow = make(map[string]struct{})
		}
		allow[id] = struct{}{}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Syncer{
		fetcher:   p.Fetcher,
		cache:     p.Cache,
		snapshots: p.Snapshots,
		allow:     allow,
		maxPoints: p.MaxPoints,
		interval:  interval,
		metrics:   p.Metrics,
	}
}

// RunOnce 拉取一轮并写入缓存，返回同步成功的序列数。
// 快照写入失败只记录日志，不影响缓存。
func (s *Syncer) RunOnce(ctx context.Context) (int, error) {
	agents, err := s.fetcher.ListAgents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list agents: %w", err)
	}
	agents = s.filter(agents)
	if len(agents) == 0 {
		return 0, nil
	}
	list, err := s.fetcher.FetchMany(ctx, agents, "", "")
	if err != nil {
		return 0, err
	}
	for _, ns := range list {
		if err := s.cache.Put(ctx, ns.ID, ns.Points, s.maxPoints); err != nil {
			return 0, fmt.Errorf("cache %s: %w", ns.ID, err)
		}
		if s.snapshots != nil {
			if err := s.snapshots.SaveSeries(ctx, ns); err != nil {
				logger.Warnf("[sync] snapshot %s failed: %v", ns.ID, err)
			}
		}
	}
	return len(list), nil
}

// Run 立即同步一次，之后按间隔循环，直到 ctx 取消。
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		started := time.Now()
		n, err := s.RunOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.metrics.SyncFailed()
			logger.Warnf("[sync] round failed: %v", err)
		case err == nil:
			logger.Debugf("[sync] %d series synced in %s", n, time.Since(started))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Syncer) filter(agents []backend.Agent) []backend.Agent {
	if s.allow == nil {
		return agents
	}
	out := make([]backend.Agent, 0, len(agents))
	for _, a := range agents {
		if _, ok := s.allow[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}
