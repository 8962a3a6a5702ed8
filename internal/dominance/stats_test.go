package dominance

import (
	"io"
	"log/slog"
	"math"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconstructBasic(t *testing.T) {
	hotkeys := []string{"hk-a", "hk-b", "hk-c"}
	envs := []string{"alpha", "beta"}

	raws := []RawScore{
		{
			Hotkey:       "hk-a",
			FirstBlock:   1200,
			TotalSamples: 80,
			OverallScore: 0.42,
			Model:        "org/model-a",
			Revision:     "deadbeef",
			Envs: map[string]RawEnvScore{
				"alpha": {Score: 0.75, SampleCount: 50, Threshold: 0.6, Completeness: 0.8},
				"beta":  {Score: 0.5, SampleCount: 30, Threshold: 0.4, Completeness: 1.0},
			},
		},
	}

	records := Reconstruct(hotkeys, envs, raws, discardLogger())
	if len(records) != 3 {
		t.Fatalf("expected 3 dense records, got %d", len(records))
	}

	a := records[0]
	if a.UID != 0 || a.Hotkey != "hk-a" {
		t.Errorf("record 0 mis-indexed: uid=%d hotkey=%s", a.UID, a.Hotkey)
	}
	if a.FirstBlock != 1200 {
		t.Errorf("expected derived first block 1200, got %d", a.FirstBlock)
	}
	if a.Points != 0.42 {
		t.Errorf("expected points 0.42, got %f", a.Points)
	}
	if a.Model != "org/model-a@deadbeef" {
		t.Errorf("expected model with revision, got %q", a.Model)
	}

	alpha := a.Envs["alpha"]
	if alpha.SampleCount != 50 || alpha.Accuracy != 0.75 {
		t.Errorf("alpha stat wrong: %+v", alpha)
	}
	if math.Abs(alpha.TotalScore-37.5) > 1e-9 {
		t.Errorf("expected total score 37.5, got %f", alpha.TotalScore)
	}
	// CI approximation: lower = threshold, upper = score.
	if alpha.CILower != 0.6 || alpha.CIUpper != 0.75 {
		t.Errorf("expected CI (0.6, 0.75), got (%f, %f)", alpha.CILower, alpha.CIUpper)
	}
	// total_problems = round(samples / completeness)
	if alpha.TotalProblems != 63 {
		t.Errorf("expected 63 total problems (round(50/0.8)), got %d", alpha.TotalProblems)
	}
	if a.Envs["beta"].TotalProblems != 30 {
		t.Errorf("expected 30 total problems at completeness 1.0, got %d", a.Envs["beta"].TotalProblems)
	}

	// Miners absent from the feed keep empty stat maps.
	for _, uid := range []int{1, 2} {
		if len(records[uid].Envs) != 0 {
			t.Errorf("uid %d should have no stats, got %d", uid, len(records[uid].Envs))
		}
		if records[uid].HasData() {
			t.Errorf("uid %d should have no data", uid)
		}
	}
}

func TestReconstructZeroCompleteness(t *testing.T) {
	records := Reconstruct([]string{"hk"}, []string{"alpha"}, []RawScore{
		{
			Hotkey:     "hk",
			FirstBlock: 10,
			Envs: map[string]RawEnvScore{
				"alpha": {Score: 0.5, SampleCount: 20, Completeness: 0},
			},
		},
	}, discardLogger())

	if got := records[0].Envs["alpha"].TotalProblems; got != 20 {
		t.Errorf("expected total problems to fall back to sample count, got %d", got)
	}
}

func TestReconstructSkipsUnknownHotkey(t *testing.T) {
	records := Reconstruct([]string{"hk"}, []string{"alpha"}, []RawScore{
		{Hotkey: "stranger", Envs: map[string]RawEnvScore{"alpha": {Score: 0.5, SampleCount: 5, Completeness: 1}}},
	}, discardLogger())

	if records[0].HasData() {
		t.Error("entry for a hotkey outside the population must be ignored")
	}
}

func TestReconstructSkipsMalformedEntries(t *testing.T) {
	records := Reconstruct([]string{"hk"}, []string{"alpha", "beta", "gamma"}, []RawScore{
		{
			Hotkey:     "hk",
			FirstBlock: 10,
			Envs: map[string]RawEnvScore{
				// alpha: score out of range, beta: negative samples, gamma: fine.
				"alpha": {Score: 1.5, SampleCount: 10, Completeness: 1},
				"beta":  {Score: 0.5, SampleCount: -3, Completeness: 1},
				"gamma": {Score: 0.5, SampleCount: 10, Completeness: 1},
			},
		},
	}, discardLogger())

	rec := records[0]
	if _, ok := rec.Envs["alpha"]; ok {
		t.Error("out-of-range score should be skipped")
	}
	if _, ok := rec.Envs["beta"]; ok {
		t.Error("negative sample count should be skipped")
	}
	if _, ok := rec.Envs["gamma"]; !ok {
		t.Error("valid entry must survive a malformed sibling")
	}
}

func TestReconstructIgnoresUnrecognizedEnvironments(t *testing.T) {
	records := Reconstruct([]string{"hk"}, []string{"alpha"}, []RawScore{
		{
			Hotkey:     "hk",
			FirstBlock: 10,
			Envs: map[string]RawEnvScore{
				"alpha":   {Score: 0.5, SampleCount: 10, Completeness: 1},
				"unknown": {Score: 0.9, SampleCount: 99, Completeness: 1},
			},
		},
	}, discardLogger())

	if _, ok := records[0].Envs["unknown"]; ok {
		t.Error("environments outside the recognized tuple must be dropped")
	}
}

func TestReconstructZeroSampleEntryHasNoCI(t *testing.T) {
	records := Reconstruct([]string{"hk"}, []string{"alpha"}, []RawScore{
		{
			Hotkey:     "hk",
			FirstBlock: 10,
			Envs: map[string]RawEnvScore{
				"alpha": {Score: 0.5, SampleCount: 0, Threshold: 0.4, Completeness: 0.2},
			},
		},
	}, discardLogger())

	stat := records[0].Envs["alpha"]
	if stat.CILower != 0 || stat.CIUpper != 0 {
		t.Errorf("expected zero CI without samples, got (%f, %f)", stat.CILower, stat.CIUpper)
	}
	if stat.TotalScore != 0 {
		t.Errorf("expected zero total score without samples, got %f", stat.TotalScore)
	}
	if records[0].HasData() {
		t.Error("zero samples everywhere means no data")
	}
}

func TestDeriveFirstBlockEarliestPositive(t *testing.T) {
	rec := &MinerRecord{Envs: map[string]EnvironmentStat{
		"alpha": {FirstBlock: 0},
		"beta":  {FirstBlock: 500},
		"gamma": {FirstBlock: 200},
	}}
	if got := deriveFirstBlock(rec); got != 200 {
		t.Errorf("expected earliest positive first block 200, got %d", got)
	}

	none := &MinerRecord{Envs: map[string]EnvironmentStat{"alpha": {FirstBlock: 0}}}
	if got := deriveFirstBlock(none); got != 0 {
		t.Errorf("expected unresolvable first block 0, got %d", got)
	}
}
