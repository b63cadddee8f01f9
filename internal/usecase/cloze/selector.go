package cloze

import (
	"math"
	"sort"

	"github.com/eslsoft/clozegen/internal/entity"
)

// SelectGaps chooses a bounded subset of candidates spread evenly across the
// token stream and returns it in ascending position order.
//
// When fewer than minGaps candidates exist the input is returned unchanged;
// the caller treats that as a generation failure. Otherwise candidates are
// ranked (pick priority only, never output order), and for each of
// min(maxGaps, len(candidates)) ideal positions spaced totalTokens/(n+1)
// apart, the unpicked ranked candidate closest to the ideal position wins.
// Equidistant candidates resolve to the one ranked earlier.
func SelectGaps(candidates []Candidate, totalTokens, minGaps, maxGaps int, preferProperNouns bool) []Candidate {
	if len(candidates) < minGaps {
		return candidates
	}

	ranked := rankCandidates(candidates, preferProperNouns)
	numGaps := min(maxGaps, len(ranked))
	spacing := float64(totalTokens) / float64(numGaps+1)

	selected := make([]Candidate, 0, numGaps)
	used := make([]bool, len(ranked))
	for gapNum := 0; gapNum < numGaps; gapNum++ {
		ideal := float64(gapNum+1) * spacing
		best := -1
		bestDist := math.Inf(1)
		for i, cand := range ranked {
			if used[i] {
				continue
			}
			if dist := math.Abs(float64(cand.Position) - ideal); dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		selected = append(selected, ranked[best])
	}

	// Top up in ranked order if the even-distribution pass came in under
	// the tier floor.
	for i := 0; len(selected) < minGaps && i < len(ranked); i++ {
		if used[i] {
			continue
		}
		used[i] = true
		selected = append(selected, ranked[i])
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Position < selected[j].Position
	})
	if len(selected) > maxGaps {
		selected = selected[:maxGaps]
	}
	return selected
}

// rankCandidates orders candidates by pick priority without mutating the
// input: proper nouns first then easiest first when the tier prefers
// proper nouns, hardest first otherwise. Ties keep their original order.
func rankCandidates(candidates []Candidate, preferProperNouns bool) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	if preferProperNouns {
		sort.SliceStable(ranked, func(i, j int) bool {
			pi := ranked[i].POS == entity.POSProperNoun
			pj := ranked[j].POS == entity.POSProperNoun
			if pi != pj {
				return pi
			}
			return ranked[i].Difficulty < ranked[j].Difficulty
		})
		return ranked
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Difficulty > ranked[j].Difficulty
	})
	return ranked
}
