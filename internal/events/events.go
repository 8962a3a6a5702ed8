package events

import (
	"strconv"
	"time"
)

const (
	StreamName   = "FRONTIER_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

func SubjectSnapshotRebuilt(block int64) string {
	return "frontier.snapshot." + strconv.FormatInt(block, 10) + ".rebuilt"
}

func SubjectSnapshotEvicted(block int64) string {
	return "frontier.snapshot." + strconv.FormatInt(block, 10) + ".evicted"
}

// SnapshotEvictedEvent announces a cached snapshot discarded by a forced
// refresh.
type SnapshotEvictedEvent struct {
	SnapshotID string    `json:"snapshot_id"`
	Block      int64     `json:"block"`
	Timestamp  time.Time `json:"timestamp"`
}

// SnapshotRebuiltEvent announces a completed population dominance build.
type SnapshotRebuiltEvent struct {
	SnapshotID          string    `json:"snapshot_id"`
	Block               int64     `json:"block"`
	TotalUIDs           int       `json:"total_uids"`
	ParetoFrontierCount int       `json:"pareto_frontier_count"`
	DominatedCount      int       `json:"dominated_count"`
	CheckedPairs        int       `json:"checked_pairs"`
	DurationMs          int64     `json:"duration_ms"`
	Timestamp           time.Time `json:"timestamp"`
}
