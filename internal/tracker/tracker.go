// Package tracker orchestrates one full dominance computation: fetch the
// population and scores from the external collaborators, reconstruct
// per-miner statistics, run the O(n²) dominance build, and cache the
// resulting snapshot per block. No collaborator failure escapes this
// package; every path returns a well-formed, possibly empty, snapshot.
package tracker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/subnet-watch/frontier/internal/chain"
	"github.com/subnet-watch/frontier/internal/config"
	"github.com/subnet-watch/frontier/internal/dominance"
	"github.com/subnet-watch/frontier/internal/events"
	"github.com/subnet-watch/frontier/internal/feed"
	"github.com/subnet-watch/frontier/internal/snapcache"
)

type Tracker struct {
	chain  chain.Client
	feed   feed.Client
	events events.Client
	cache  snapcache.Cache
	cfg    *config.Config
	logger *slog.Logger
}

func New(chainClient chain.Client, feedClient feed.Client, eventsClient events.Client,
	cache snapcache.Cache, cfg *config.Config, logger *slog.Logger) *Tracker {
	return &Tracker{
		chain:  chainClient,
		feed:   feedClient,
		events: eventsClient,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// DominatorDetail expands every dominator of one miner into its full status
// record.
type DominatorDetail struct {
	UID            int                     `json:"uid"`
	Dominators     []dominance.MinerStatus `json:"dominating_uids"`
	TotalCount     int                     `json:"total_count"`
	ExpectedCount  int                     `json:"expected_count"`
	ActiveCount    int                     `json:"active_count"`
	NonActiveCount int                     `json:"non_active_count"`
}

// Snapshot returns the population snapshot for the given block (nil means
// the current chain block). With refresh=false a cached snapshot is returned
// unchanged; refresh=true evicts the key first and recomputes
// unconditionally. The cache lock is never held across the rebuild, so two
// concurrent callers requesting the same uncached key may both recompute.
func (t *Tracker) Snapshot(ctx context.Context, block *int64, refresh bool) *dominance.Snapshot {
	meta, err := t.chain.Metagraph(ctx)
	if err != nil {
		t.logger.Error("failed to fetch metagraph", "error", err)
		emptySnapshotsTotal.Inc()
		return dominance.EmptySnapshot(0, 0)
	}

	cacheBlock := meta.Block
	if block != nil {
		cacheBlock = *block
	}

	if refresh {
		t.logger.Info("refresh requested, forcing full recomputation", "block", cacheBlock)
		if old, ok := t.cache.Get(cacheBlock); ok {
			t.cache.Evict(cacheBlock)
			cacheEvictionsTotal.Inc()
			t.publishEvicted(cacheBlock, old)
		}
	} else if snap, ok := t.cache.Get(cacheBlock); ok {
		t.logger.Debug("serving cached snapshot", "block", cacheBlock)
		cacheHitsTotal.Inc()
		return snap
	} else {
		cacheMissesTotal.Inc()
	}

	start := time.Now()
	snap, ok := t.rebuild(ctx, meta)
	if !ok {
		emptySnapshotsTotal.Inc()
		return snap
	}

	rebuildsTotal.Inc()
	rebuildDuration.Observe(time.Since(start).Seconds())
	checkedPairsTotal.Add(float64(snap.CheckedPairs))

	t.cache.Insert(cacheBlock, snap)
	t.publishRebuilt(snap, time.Since(start))
	return snap
}

// MinerStatus returns one miner's status from the snapshot for block.
func (t *Tracker) MinerStatus(ctx context.Context, uid int, block *int64, refresh bool) (*dominance.MinerStatus, bool) {
	snap := t.Snapshot(ctx, block, refresh)
	return statusByUID(snap, uid)
}

// DominatorDetails expands the full records of every miner dominating uid.
func (t *Tracker) DominatorDetails(ctx context.Context, uid int, block *int64, refresh bool) (*DominatorDetail, bool) {
	snap := t.Snapshot(ctx, block, refresh)
	status, ok := statusByUID(snap, uid)
	if !ok {
		return nil, false
	}
	return t.detailFor(snap, status), true
}

// Rebuild forces a fresh snapshot. With withDetails=true it also expands the
// dominator details of every dominated miner in the same pass.
func (t *Tracker) Rebuild(ctx context.Context, block *int64, withDetails bool) (*dominance.Snapshot, map[int]*DominatorDetail) {
	snap := t.Snapshot(ctx, block, true)
	if !withDetails {
		return snap, nil
	}
	details := make(map[int]*DominatorDetail)
	for i := range snap.UIDs {
		status := &snap.UIDs[i]
		if len(status.DominatingUIDs) == 0 {
			continue
		}
		details[status.UID] = t.detailFor(snap, status)
	}
	t.logger.Info("precomputed dominator details", "block", snap.Block, "dominated_uids", len(details))
	return snap, details
}

func (t *Tracker) rebuild(ctx context.Context, meta *chain.Metagraph) (*dominance.Snapshot, bool) {
	empty := func() *dominance.Snapshot {
		return dominance.EmptySnapshot(meta.Block, len(meta.Hotkeys))
	}

	scores, err := t.feed.LatestScores(ctx, t.cfg.ScoreFeed.TopN)
	if err != nil {
		t.logger.Error("failed to fetch scores", "error", err)
		return empty(), false
	}
	if scores == nil || scores.BlockNumber == 0 {
		t.logger.Error("score feed returned no data")
		return empty(), false
	}

	envs, err := t.feed.Environments(ctx)
	if err != nil {
		t.logger.Warn("failed to fetch environment registry", "error", err)
	}
	if len(envs) == 0 {
		envs = envsFromScores(scores)
		if len(envs) > 0 {
			t.logger.Info("environment registry empty, extracted from scores", "envs", envs)
		}
	}
	if len(envs) == 0 {
		t.logger.Error("no environments available, cannot compute dominance")
		return empty(), false
	}

	minCompleteness := t.cfg.Dominance.MinCompleteness
	if policy, err := t.feed.ScoringPolicy(ctx); err != nil {
		t.logger.Warn("failed to fetch scoring policy, using configured min completeness", "error", err)
	} else if policy != nil && policy.MinCompleteness != nil {
		minCompleteness = *policy.MinCompleteness
	}

	records := dominance.Reconstruct(meta.Hotkeys, envs, rawScores(scores), t.logger)

	// Commitment model names take precedence over feed-reported ones.
	if commits, err := t.chain.Commitments(ctx); err != nil {
		t.logger.Warn("could not fetch commitments", "error", err)
	} else {
		names := chain.ModelNames(commits)
		for _, rec := range records {
			if name, ok := names[rec.Hotkey]; ok {
				rec.Model = name
			}
		}
	}

	withData := 0
	for _, rec := range records {
		if rec.HasData() {
			withData++
		}
	}
	if withData == 0 {
		t.logger.Error("no non-zero statistics anywhere, cannot compute dominance")
		return empty(), false
	}
	t.logger.Info("reconstructed stats", "miners_with_data", withData, "environments", len(envs))

	builder := dominance.NewBuilder(t.thresholds(), minCompleteness, t.logger)
	return builder.Build(meta.Block, envs, records), true
}

func (t *Tracker) thresholds() dominance.Thresholds {
	return dominance.Thresholds{
		ErrorRateReduction: t.cfg.Dominance.ErrorRateReduction,
		MinImprovement:     t.cfg.Dominance.MinImprovement,
		MaxImprovement:     t.cfg.Dominance.MaxImprovement,
	}
}

func (t *Tracker) detailFor(snap *dominance.Snapshot, status *dominance.MinerStatus) *DominatorDetail {
	detail := &DominatorDetail{
		UID:            status.UID,
		Dominators:     []dominance.MinerStatus{},
		ExpectedCount:  len(status.DominatingUIDs),
		ActiveCount:    status.DominatingActiveCount,
		NonActiveCount: status.DominatingNonActiveCount,
	}
	for _, dom := range status.DominatingUIDs {
		ds, ok := statusByUID(snap, dom)
		if !ok {
			t.logger.Warn("dominating uid missing from snapshot", "uid", status.UID, "dominator", dom)
			continue
		}
		detail.Dominators = append(detail.Dominators, *ds)
	}
	detail.TotalCount = len(detail.Dominators)
	return detail
}

func (t *Tracker) publishRebuilt(snap *dominance.Snapshot, took time.Duration) {
	if t.events == nil {
		return
	}
	err := t.events.Publish(events.SubjectSnapshotRebuilt(snap.Block), events.SnapshotRebuiltEvent{
		SnapshotID:          snap.ID.String(),
		Block:               snap.Block,
		TotalUIDs:           snap.TotalUIDs,
		ParetoFrontierCount: snap.ParetoFrontierCount,
		DominatedCount:      snap.DominatedCount,
		CheckedPairs:        snap.CheckedPairs,
		DurationMs:          took.Milliseconds(),
		Timestamp:           time.Now().UTC(),
	})
	if err != nil {
		t.logger.Warn("failed to publish rebuild event", "error", err)
	}
}

func (t *Tracker) publishEvicted(block int64, snap *dominance.Snapshot) {
	if t.events == nil {
		return
	}
	err := t.events.Publish(events.SubjectSnapshotEvicted(block), events.SnapshotEvictedEvent{
		SnapshotID: snap.ID.String(),
		Block:      block,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		t.logger.Warn("failed to publish eviction event", "error", err)
	}
}

// statusByUID resolves a uid in a snapshot. Snapshots are dense by uid;
// empty snapshots fall through to the not-found case.
func statusByUID(snap *dominance.Snapshot, uid int) (*dominance.MinerStatus, bool) {
	if uid >= 0 && uid < len(snap.UIDs) && snap.UIDs[uid].UID == uid {
		return &snap.UIDs[uid], true
	}
	for i := range snap.UIDs {
		if snap.UIDs[i].UID == uid {
			return &snap.UIDs[i], true
		}
	}
	return nil, false
}

func rawScores(payload *feed.ScorePayload) []dominance.RawScore {
	raws := make([]dominance.RawScore, 0, len(payload.Scores))
	for _, s := range payload.Scores {
		raw := dominance.RawScore{
			Hotkey:       s.Hotkey,
			FirstBlock:   s.FirstBlock,
			TotalSamples: s.TotalSamples,
			OverallScore: s.OverallScore,
			Model:        s.Model,
			Revision:     s.ModelRevision,
			Envs:         make(map[string]dominance.RawEnvScore, len(s.ScoresByEnv)),
		}
		for env, e := range s.ScoresByEnv {
			raw.Envs[env] = dominance.RawEnvScore{
				Score:        e.Score,
				SampleCount:  e.SampleCount,
				Threshold:    e.Threshold,
				Completeness: e.CompletenessOrDefault(),
			}
		}
		raws = append(raws, raw)
	}
	return raws
}

func envsFromScores(payload *feed.ScorePayload) []string {
	set := make(map[string]struct{})
	for _, s := range payload.Scores {
		for env := range s.ScoresByEnv {
			set[env] = struct{}{}
		}
	}
	envs := make([]string, 0, len(set))
	for env := range set {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return envs
}
