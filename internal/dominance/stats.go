package dominance

import (
	"log/slog"
	"math"
)

// RawScore is one miner's entry from the score feed, already decoded but not
// yet validated.
type RawScore struct {
	Hotkey       string
	FirstBlock   int64
	TotalSamples int
	OverallScore float64
	Model        string
	Revision     string
	Envs         map[string]RawEnvScore
}

// RawEnvScore is the per-environment payload of a RawScore.
type RawEnvScore struct {
	Score        float64
	SampleCount  int
	Threshold    float64
	Completeness float64
}

// Reconstruct normalizes raw score-feed entries into dense per-UID miner
// records. hotkeys is the ordered population from the metagraph; its index
// is the UID. envs is the fixed tuple of recognized environment names;
// entries for unrecognized environments are ignored.
//
// Miners absent from raws keep an empty stat map. Malformed entries are
// skipped and logged, never aborting the whole reconstruction.
func Reconstruct(hotkeys, envs []string, raws []RawScore, logger *slog.Logger) []*MinerRecord {
	index := make(map[string]int, len(hotkeys))
	records := make([]*MinerRecord, len(hotkeys))
	for uid, hk := range hotkeys {
		index[hk] = uid
		records[uid] = &MinerRecord{
			Hotkey: hk,
			UID:    uid,
			Envs:   make(map[string]EnvironmentStat),
		}
	}

	for _, raw := range raws {
		uid, ok := index[raw.Hotkey]
		if !ok {
			logger.Debug("score entry for hotkey not in population, skipping", "hotkey", raw.Hotkey)
			continue
		}
		rec := records[uid]
		rec.Points = raw.OverallScore
		rec.TotalSamples = raw.TotalSamples
		if raw.Model != "" {
			rec.Model = raw.Model
			if raw.Revision != "" {
				rec.Model += "@" + raw.Revision
			}
		}

		for _, env := range envs {
			entry, ok := raw.Envs[env]
			if !ok {
				continue
			}
			if !validEnvEntry(entry) {
				logger.Warn("malformed environment entry, skipping",
					"hotkey", raw.Hotkey, "env", env,
					"score", entry.Score, "sample_count", entry.SampleCount,
					"completeness", entry.Completeness)
				continue
			}

			stat := EnvironmentStat{
				SampleCount:  entry.SampleCount,
				Accuracy:     entry.Score,
				Completeness: entry.Completeness,
				Threshold:    entry.Threshold,
				FirstBlock:   raw.FirstBlock,
			}
			if entry.SampleCount > 0 {
				stat.TotalScore = entry.Score * float64(entry.SampleCount)
				// Conservative approximation, not a statistical interval:
				// lower = threshold, upper = score.
				stat.CILower = math.Max(0, entry.Threshold)
				stat.CIUpper = math.Min(1, entry.Score)
			}
			if entry.Completeness > 0 {
				stat.TotalProblems = int(math.Round(float64(entry.SampleCount) / entry.Completeness))
			} else {
				stat.TotalProblems = entry.SampleCount
			}
			rec.Envs[env] = stat
		}

		rec.FirstBlock = deriveFirstBlock(rec)
	}

	return records
}

// deriveFirstBlock scans once for the earliest positive environment-level
// first block; stored on the record so no later path rescans.
func deriveFirstBlock(rec *MinerRecord) int64 {
	var first int64
	for _, s := range rec.Envs {
		if s.FirstBlock > 0 && (first == 0 || s.FirstBlock < first) {
			first = s.FirstBlock
		}
	}
	return first
}

func validEnvEntry(e RawEnvScore) bool {
	if e.SampleCount < 0 {
		return false
	}
	if math.IsNaN(e.Score) || e.Score < 0 || e.Score > 1 {
		return false
	}
	if math.IsNaN(e.Completeness) || e.Completeness < 0 || e.Completeness > 1 {
		return false
	}
	if math.IsNaN(e.Threshold) || math.IsInf(e.Threshold, 0) {
		return false
	}
	return true
}
