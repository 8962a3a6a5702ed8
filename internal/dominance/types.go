package dominance

import "github.com/google/uuid"

// Block time of the underlying chain, used to express miner age in days.
const (
	blockTimeSeconds = 12
	secondsPerDay    = 60 * 60 * 24
)

// EnvironmentStat holds one miner's reconstructed statistics for a single
// evaluation environment.
type EnvironmentStat struct {
	SampleCount   int     `json:"sample_count"`
	Accuracy      float64 `json:"accuracy"`
	TotalScore    float64 `json:"total_score"`
	Completeness  float64 `json:"completeness"`
	Threshold     float64 `json:"threshold"`
	CILower       float64 `json:"ci_lower"`
	CIUpper       float64 `json:"ci_upper"`
	FirstBlock    int64   `json:"first_block"`
	TotalProblems int     `json:"total_problems"`
}

// MinerRecord is the reconstructed view of one miner across all recognized
// environments. Envs only contains entries for environments the score feed
// reported for this miner; a miner absent from the feed has an empty map.
type MinerRecord struct {
	Hotkey       string
	UID          int
	Envs         map[string]EnvironmentStat
	Points       float64
	Model        string
	TotalSamples int

	// FirstBlock is the earliest positive environment-level first block,
	// derived once at reconstruction. 0 means unresolvable.
	FirstBlock int64
}

// HasData reports whether the miner has at least one sample in any environment.
func (r *MinerRecord) HasData() bool {
	for _, s := range r.Envs {
		if s.SampleCount > 0 {
			return true
		}
	}
	return false
}

// AgeDays returns the miner's age in days relative to currentBlock.
// Miners without a resolvable first block have age 0.
func (r *MinerRecord) AgeDays(currentBlock int64) float64 {
	if r.FirstBlock <= 0 {
		return 0
	}
	return float64(currentBlock-r.FirstBlock) * blockTimeSeconds / secondsPerDay
}

// Interval is a (lower, upper) confidence bound pair. Marshals as a
// two-element array.
type Interval [2]float64

// MinerStatus is the per-UID dominance result within a snapshot.
type MinerStatus struct {
	UID                      int                 `json:"uid"`
	Hotkey                   string              `json:"hotkey"`
	IsDominated              bool                `json:"is_dominated"`
	DominatingUIDs           []int               `json:"dominating_uids"`
	DominatedByCount         int                 `json:"dominated_by_count"`
	DominatingActiveCount    int                 `json:"dominating_active_count"`
	DominatingNonActiveCount int                 `json:"dominating_non_active_count"`
	OnParetoFrontier         bool                `json:"on_pareto_frontier"`
	HasData                  bool                `json:"has_data"`
	IsActive                 bool                `json:"is_active"`
	AgeDays                  float64             `json:"age_days"`
	FirstBlock               *int64              `json:"first_block,omitempty"`
	Points                   float64             `json:"points"`
	EnvScores                map[string]float64  `json:"env_scores"`
	EnvConfidenceIntervals   map[string]Interval `json:"env_confidence_intervals"`
	EnvCompleteness          map[string]float64  `json:"env_completeness"`
	EnvThresholds            map[string]float64  `json:"env_thresholds"`
	EnvSampleCounts          map[string]int      `json:"env_sample_counts"`
	EnvTotalProblems         map[string]int      `json:"env_total_problems"`
	ModelName                string              `json:"model_name,omitempty"`
}

// Snapshot is the complete, immutable result of one population-wide
// dominance computation at a specific chain block.
type Snapshot struct {
	ID                  uuid.UUID     `json:"snapshot_id"`
	Block               int64         `json:"block"`
	UIDs                []MinerStatus `json:"uids"`
	TotalUIDs           int           `json:"total_uids"`
	ParetoFrontierCount int           `json:"pareto_frontier_count"`
	DominatedCount      int           `json:"dominated_count"`

	// CheckedPairs counts candidate/target evaluations performed during the
	// build; not part of the wire format.
	CheckedPairs int `json:"-"`
}

// EmptySnapshot returns a well-formed snapshot with zero miners, used on
// every failure path so collaborator errors never escape the rebuild.
func EmptySnapshot(block int64, totalUIDs int) *Snapshot {
	return &Snapshot{
		ID:        uuid.New(),
		Block:     block,
		UIDs:      []MinerStatus{},
		TotalUIDs: totalUIDs,
	}
}
