package service

import "sort"

// rrfK is the damping term for Reciprocal Rank Fusion. 60 is the standard
// constant in rank-fusion literature; it is deliberately not configurable.
const rrfK = 60

// fuseReciprocalRank combines ranked lists into one list scored by RRF: a
// result at rank r (1-based) in a method's list contributes 1/(rrfK+r), and
// an insight's fused score is the sum of its contributions across the
// methods that found it. The output is deduplicated by insight ID and
// sorted descending by fused score, with first-seen order breaking ties.
func fuseReciprocalRank(lists ...[]*SearchRow) []*SearchRow {
	fused := make(map[string]*SearchRow)
	var order []string

	for _, list := range lists {
		for i, row := range list {
			if row == nil || row.Insight == nil {
				continue
			}
			contribution := 1.0 / float64(rrfK+i+1)
			existing, ok := fused[row.Insight.ID]
			if !ok {
				order = append(order, row.Insight.ID)
				fused[row.Insight.ID] = &SearchRow{Insight: row.Insight, Score: contribution}
				continue
			}
			existing.Score += contribution
		}
	}

	out := make([]*SearchRow, 0, len(fused))
	for _, id := range order {
		out = append(out, fused[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// mergeExpansionResults merges lens-tagged expansion hits into the primary
// result set keyed by insight ID. When an insight appears in both, the
// strictly higher relevance wins; on exact ties the primary (untagged)
// occurrence survives, so a direct hit never loses to an expansion hit of
// equal score. The merged set is re-sorted descending by relevance.
func mergeExpansionResults(primary, expansion []*ScoredInsight) []*ScoredInsight {
	best := make(map[string]*ScoredInsight)
	var order []string

	add := func(list []*ScoredInsight) {
		for _, r := range list {
			if r == nil || r.Insight == nil {
				continue
			}
			existing, ok := best[r.Insight.ID]
			if !ok {
				order = append(order, r.Insight.ID)
				best[r.Insight.ID] = r
				continue
			}
			if r.Relevance > existing.Relevance {
				best[r.Insight.ID] = r
			}
		}
	}

	add(primary)
	add(expansion)

	out := make([]*ScoredInsight, 0, len(best))
	for _, id := range order {
		out = append(out, best[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	return out
}

// relatedDomains returns the domain tags across results, deduplicated and
// sorted by descending frequency; the first tag encountered wins ties.
func relatedDomains(results []*ScoredInsight) []string {
	counts := make(map[string]int)
	var order []string

	for _, r := range results {
		if r == nil || r.Insight == nil {
			continue
		}
		for _, tag := range r.Insight.DomainTags {
			if _, ok := counts[tag]; !ok {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
