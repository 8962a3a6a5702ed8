package dominance

// Dominates reports whether candidate dominates target under the
// threshold-adjusted rule. Deterministic and pure.
//
// The earlier miner (smaller first block) sets the bar: the later miner must
// strictly exceed RequiredScore(earlier accuracy) in EVERY environment both
// have samples in, otherwise the earlier miner wins that environment. The
// earlier miner dominates iff it wins all shared environments; the later
// miner dominates iff it clears the threshold in all of them.
//
// When either miner's first block is unresolvable, or both started at the
// same block, the comparison falls back to the simple rule: candidate
// dominates iff it is strictly more accurate in at least one shared
// environment and strictly worse in none.
func Dominates(candidate, target *MinerRecord, envs []string, th Thresholds) bool {
	if candidate == nil || target == nil {
		return false
	}
	if !candidate.HasData() || !target.HasData() {
		return false
	}

	if candidate.FirstBlock <= 0 || target.FirstBlock <= 0 ||
		candidate.FirstBlock == target.FirstBlock {
		cWins, tWins := simpleWins(candidate, target, envs)
		return cWins && !tWins
	}

	earlier, later := candidate, target
	if target.FirstBlock < candidate.FirstBlock {
		earlier, later = target, candidate
	}

	var earlierWins, laterWins, shared int
	for _, env := range envs {
		es, ok := earlier.Envs[env]
		if !ok || es.SampleCount == 0 {
			continue
		}
		ls, ok := later.Envs[env]
		if !ok || ls.SampleCount == 0 {
			continue
		}
		shared++
		if ls.Accuracy > th.RequiredScore(es.Accuracy)+winEpsilon {
			laterWins++
		} else {
			earlierWins++
		}
	}
	if shared == 0 {
		return false
	}

	if earlier == candidate {
		return earlierWins == shared
	}
	return laterWins == shared
}

// simpleWins applies the plain strict-accuracy comparison over every
// environment where both miners have samples.
func simpleWins(a, b *MinerRecord, envs []string) (aWins, bWins bool) {
	for _, env := range envs {
		as, ok := a.Envs[env]
		if !ok || as.SampleCount == 0 {
			continue
		}
		bs, ok := b.Envs[env]
		if !ok || bs.SampleCount == 0 {
			continue
		}
		if as.Accuracy > bs.Accuracy {
			aWins = true
		} else if bs.Accuracy > as.Accuracy {
			bWins = true
		}
	}
	return aWins, bWins
}
