package dominance

import (
	"log/slog"

	"github.com/google/uuid"
)

// Builder drives the pairwise evaluator over an entire population. A build
// is one uninterrupted synchronous pass; nothing is published until every
// pair has been checked.
type Builder struct {
	thresholds      Thresholds
	minCompleteness float64
	logger          *slog.Logger
}

// NewBuilder creates a Builder. minCompleteness is the bar a miner must meet
// in at least one environment to count as active.
func NewBuilder(th Thresholds, minCompleteness float64, logger *slog.Logger) *Builder {
	return &Builder{
		thresholds:      th,
		minCompleteness: minCompleteness,
		logger:          logger,
	}
}

// Build computes the full dominance relation for the population at block.
// records must be dense by UID (one per population slot). The result is
// deterministic for identical inputs regardless of evaluation order.
func (b *Builder) Build(block int64, envs []string, records []*MinerRecord) *Snapshot {
	snap := &Snapshot{
		ID:        uuid.New(),
		Block:     block,
		UIDs:      make([]MinerStatus, 0, len(records)),
		TotalUIDs: len(records),
	}

	active := make([]bool, len(records))
	hasData := make([]bool, len(records))
	ages := make([]float64, len(records))
	for uid, rec := range records {
		active[uid] = b.isActive(rec)
		hasData[uid] = rec.HasData()
		ages[uid] = rec.AgeDays(block)
	}

	for uid, rec := range records {
		status := b.baseStatus(rec, envs, block)
		status.IsActive = active[uid]

		if !hasData[uid] {
			// No data anywhere: not in competition, always on the frontier.
			status.OnParetoFrontier = true
			snap.UIDs = append(snap.UIDs, status)
			continue
		}
		status.HasData = true

		for cand, crec := range records {
			if cand == uid || !hasData[cand] {
				continue
			}
			// Strictly younger candidates never displace the target.
			if ages[cand] < ages[uid] {
				continue
			}
			snap.CheckedPairs++
			if !b.pairDominates(crec, rec, envs) {
				continue
			}
			status.DominatingUIDs = append(status.DominatingUIDs, cand)
			if active[cand] {
				status.DominatingActiveCount++
			} else {
				status.DominatingNonActiveCount++
			}
		}

		status.DominatedByCount = len(status.DominatingUIDs)
		status.IsDominated = status.DominatedByCount > 0
		status.OnParetoFrontier = !status.IsDominated
		snap.UIDs = append(snap.UIDs, status)
	}

	for _, s := range snap.UIDs {
		if s.OnParetoFrontier && s.HasData {
			snap.ParetoFrontierCount++
		}
		if s.IsDominated {
			snap.DominatedCount++
		}
	}

	b.logger.Info("dominance build complete",
		"block", block,
		"snapshot_id", snap.ID,
		"total_uids", snap.TotalUIDs,
		"checked_pairs", snap.CheckedPairs,
		"frontier", snap.ParetoFrontierCount,
		"dominated", snap.DominatedCount)

	return snap
}

// pairDominates wraps the pure evaluator so an unexpected failure on one
// pair degrades to "does not dominate" instead of aborting the build.
func (b *Builder) pairDominates(candidate, target *MinerRecord, envs []string) (dom bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("dominance check failed, treating as non-dominating",
				"candidate", candidate.UID, "target", target.UID, "reason", r)
			dom = false
		}
	}()
	return Dominates(candidate, target, envs, b.thresholds)
}

func (b *Builder) isActive(rec *MinerRecord) bool {
	for _, s := range rec.Envs {
		if s.Completeness >= b.minCompleteness {
			return true
		}
	}
	return false
}

func (b *Builder) baseStatus(rec *MinerRecord, envs []string, block int64) MinerStatus {
	status := MinerStatus{
		UID:                    rec.UID,
		Hotkey:                 rec.Hotkey,
		DominatingUIDs:         []int{},
		AgeDays:                rec.AgeDays(block),
		Points:                 rec.Points,
		ModelName:              rec.Model,
		EnvScores:              make(map[string]float64, len(envs)),
		EnvConfidenceIntervals: make(map[string]Interval, len(envs)),
		EnvCompleteness:        make(map[string]float64, len(envs)),
		EnvThresholds:          make(map[string]float64, len(envs)),
		EnvSampleCounts:        make(map[string]int, len(envs)),
		EnvTotalProblems:       make(map[string]int, len(envs)),
	}
	if rec.FirstBlock > 0 {
		fb := rec.FirstBlock
		status.FirstBlock = &fb
	}
	if !rec.HasData() {
		// Out of competition: points are not meaningful without samples.
		status.Points = 0
	}
	for _, env := range envs {
		s, ok := rec.Envs[env]
		if !ok {
			// Absent environments render with defined defaults.
			status.EnvCompleteness[env] = 1.0
			status.EnvScores[env] = 0
			status.EnvConfidenceIntervals[env] = Interval{0, 0}
			status.EnvThresholds[env] = 0
			status.EnvSampleCounts[env] = 0
			status.EnvTotalProblems[env] = 0
			continue
		}
		if s.SampleCount > 0 {
			status.EnvScores[env] = s.Accuracy
		} else {
			status.EnvScores[env] = 0
		}
		status.EnvConfidenceIntervals[env] = Interval{s.CILower, s.CIUpper}
		status.EnvCompleteness[env] = s.Completeness
		status.EnvThresholds[env] = s.Threshold
		status.EnvSampleCounts[env] = s.SampleCount
		status.EnvTotalProblems[env] = s.TotalProblems
	}
	return status
}
