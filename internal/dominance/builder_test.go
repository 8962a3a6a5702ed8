package dominance

import (
	"reflect"
	"testing"
)

func newTestBuilder(minCompleteness float64) *Builder {
	return NewBuilder(DefaultThresholds(), minCompleteness, discardLogger())
}

func completeStat(accuracy float64, samples int, completeness float64) EnvironmentStat {
	return EnvironmentStat{SampleCount: samples, Accuracy: accuracy, Completeness: completeness}
}

func TestBuildIncumbentDominatesMarginalImprover(t *testing.T) {
	envs := []string{"alpha"}
	records := []*MinerRecord{
		testRecord(0, 100, map[string]EnvironmentStat{"alpha": completeStat(0.80, 50, 1.0)}),
		testRecord(1, 200, map[string]EnvironmentStat{"alpha": completeStat(0.83, 50, 1.0)}),
	}

	snap := newTestBuilder(0.95).Build(1000, envs, records)

	if snap.TotalUIDs != 2 || len(snap.UIDs) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(snap.UIDs))
	}

	a, b := snap.UIDs[0], snap.UIDs[1]
	if a.IsDominated || !a.OnParetoFrontier {
		t.Error("incumbent should stay on the frontier")
	}
	if !b.IsDominated || b.OnParetoFrontier {
		t.Error("marginal improver should be dominated")
	}
	if !reflect.DeepEqual(b.DominatingUIDs, []int{0}) {
		t.Errorf("expected dominator [0], got %v", b.DominatingUIDs)
	}
	if b.DominatedByCount != 1 || b.DominatingActiveCount != 1 || b.DominatingNonActiveCount != 0 {
		t.Errorf("unexpected dominator counts: %+v", b)
	}
	if snap.ParetoFrontierCount != 1 || snap.DominatedCount != 1 {
		t.Errorf("expected frontier=1 dominated=1, got %d/%d", snap.ParetoFrontierCount, snap.DominatedCount)
	}
}

func TestBuildYoungerCandidateNeverDominates(t *testing.T) {
	// The later entrant clears the incumbent's threshold, so at the pair
	// level it dominates. A strictly younger candidate is still never
	// collected as a dominator, so the incumbent keeps its frontier spot.
	envs := []string{"alpha"}
	records := []*MinerRecord{
		testRecord(0, 100, map[string]EnvironmentStat{"alpha": completeStat(0.80, 50, 1.0)}),
		testRecord(1, 200, map[string]EnvironmentStat{"alpha": completeStat(0.85, 50, 1.0)}),
	}

	snap := newTestBuilder(0.95).Build(1000, envs, records)

	a, b := snap.UIDs[0], snap.UIDs[1]
	if a.IsDominated {
		t.Error("strictly younger candidate must never appear as a dominator")
	}
	if b.IsDominated {
		t.Error("later entrant cleared the threshold and must not be dominated")
	}
	if snap.ParetoFrontierCount != 2 || snap.DominatedCount != 0 {
		t.Errorf("expected frontier=2 dominated=0, got %d/%d", snap.ParetoFrontierCount, snap.DominatedCount)
	}
}

func TestBuildZeroDataMiner(t *testing.T) {
	envs := []string{"alpha"}
	records := []*MinerRecord{
		testRecord(0, 100, map[string]EnvironmentStat{"alpha": completeStat(0.9, 50, 1.0)}),
		testRecord(1, 0, map[string]EnvironmentStat{}),
	}

	snap := newTestBuilder(0.95).Build(1000, envs, records)

	empty := snap.UIDs[1]
	if empty.HasData {
		t.Error("expected has_data=false")
	}
	if !empty.OnParetoFrontier || empty.IsDominated {
		t.Error("zero-data miner is always on the frontier and never dominated")
	}
	if empty.AgeDays != 0 || empty.FirstBlock != nil {
		t.Error("zero-data miner has no age or first block")
	}
	// has_data gates the frontier aggregate.
	if snap.ParetoFrontierCount != 1 {
		t.Errorf("expected frontier count 1 (data-bearing only), got %d", snap.ParetoFrontierCount)
	}
}

func TestBuildActiveNonActivePartition(t *testing.T) {
	envs := []string{"alpha"}
	records := []*MinerRecord{
		// Two incumbents at the same accuracy, one complete and one not.
		testRecord(0, 100, map[string]EnvironmentStat{"alpha": completeStat(0.80, 50, 1.0)}),
		testRecord(1, 100, map[string]EnvironmentStat{"alpha": completeStat(0.80, 50, 0.5)}),
		testRecord(2, 300, map[string]EnvironmentStat{"alpha": completeStat(0.81, 50, 1.0)}),
	}

	snap := newTestBuilder(0.95).Build(1000, envs, records)

	target := snap.UIDs[2]
	if !reflect.DeepEqual(target.DominatingUIDs, []int{0, 1}) {
		t.Fatalf("expected dominators [0 1], got %v", target.DominatingUIDs)
	}
	if target.DominatingActiveCount != 1 || target.DominatingNonActiveCount != 1 {
		t.Errorf("expected 1 active / 1 non-active dominator, got %d/%d",
			target.DominatingActiveCount, target.DominatingNonActiveCount)
	}
	if !snap.UIDs[0].IsActive {
		t.Error("uid 0 meets the completeness bar, expected active")
	}
	if snap.UIDs[1].IsActive {
		t.Error("uid 1 misses the completeness bar, expected non-active")
	}
}

func TestBuildDeterministic(t *testing.T) {
	envs := []string{"alpha", "beta"}
	make2 := func() []*MinerRecord {
		return []*MinerRecord{
			testRecord(0, 100, map[string]EnvironmentStat{"alpha": completeStat(0.80, 50, 1.0), "beta": completeStat(0.70, 20, 0.9)}),
			testRecord(1, 150, map[string]EnvironmentStat{"alpha": completeStat(0.82, 50, 1.0)}),
			testRecord(2, 200, map[string]EnvironmentStat{"beta": completeStat(0.95, 40, 1.0)}),
			testRecord(3, 0, map[string]EnvironmentStat{}),
		}
	}

	b := newTestBuilder(0.95)
	first := b.Build(5000, envs, make2())
	second := b.Build(5000, envs, make2())

	if !reflect.DeepEqual(first.UIDs, second.UIDs) {
		t.Error("identical inputs must produce an identical relation")
	}
	if first.ParetoFrontierCount != second.ParetoFrontierCount ||
		first.DominatedCount != second.DominatedCount ||
		first.CheckedPairs != second.CheckedPairs {
		t.Error("aggregate counts must be deterministic")
	}
}

func TestBuildStatusEnvDefaults(t *testing.T) {
	envs := []string{"alpha", "beta"}
	records := []*MinerRecord{
		testRecord(0, 100, map[string]EnvironmentStat{"alpha": {
			SampleCount: 10, Accuracy: 0.7, Completeness: 0.9, Threshold: 0.5,
			CILower: 0.5, CIUpper: 0.7, TotalProblems: 11,
		}}),
	}

	snap := newTestBuilder(0.95).Build(1000, envs, records)
	status := snap.UIDs[0]

	if status.EnvScores["alpha"] != 0.7 || status.EnvSampleCounts["alpha"] != 10 {
		t.Errorf("populated environment rendered wrong: %+v", status)
	}
	if status.EnvConfidenceIntervals["alpha"] != (Interval{0.5, 0.7}) {
		t.Errorf("expected CI (0.5, 0.7), got %v", status.EnvConfidenceIntervals["alpha"])
	}
	// Absent environments render with defined defaults.
	if status.EnvScores["beta"] != 0 || status.EnvCompleteness["beta"] != 1.0 {
		t.Errorf("absent environment defaults wrong: score=%f completeness=%f",
			status.EnvScores["beta"], status.EnvCompleteness["beta"])
	}
	if status.EnvConfidenceIntervals["beta"] != (Interval{0, 0}) {
		t.Errorf("expected zero CI for absent environment")
	}
}

func TestBuildAgeDays(t *testing.T) {
	envs := []string{"alpha"}
	records := []*MinerRecord{
		testRecord(0, 1000, map[string]EnvironmentStat{"alpha": completeStat(0.5, 10, 1.0)}),
	}

	// 7200 blocks at 12s each is exactly one day.
	snap := newTestBuilder(0.95).Build(8200, envs, records)
	if got := snap.UIDs[0].AgeDays; got != 1.0 {
		t.Errorf("expected age 1.0 days, got %f", got)
	}
	if fb := snap.UIDs[0].FirstBlock; fb == nil || *fb != 1000 {
		t.Errorf("expected first block 1000, got %v", fb)
	}
}
