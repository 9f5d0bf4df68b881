package services

import "sort"

// DiversitySelector picks a bounded subset of ranked chunks while
// guaranteeing cross-document representation: naive top-K can starve the
// answer of every document except the single highest scorer.
type DiversitySelector struct {
	cfg EngineConfig
}

func NewDiversitySelector(cfg EngineConfig) *DiversitySelector {
	return &DiversitySelector{cfg: cfg}
}

// Select keeps each document's best chunk above the relevance floor, then
// distributes the remaining slots across documents proportionally. The
// result is re-sorted by score, stable with respect to the input ranking.
func (s *DiversitySelector) Select(ranked []ScoredChunk, maxChunks int) []ScoredChunk {
	if maxChunks <= 0 {
		maxChunks = s.cfg.MaxContextChunks
	}
	if len(ranked) == 0 {
		return nil
	}

	// Group by document, preserving ranked order within each group and
	// the order documents first appear in the ranking.
	groups := make(map[string][]int)
	var docOrder []string
	for i, sc := range ranked {
		if _, ok := groups[sc.DocumentID]; !ok {
			docOrder = append(docOrder, sc.DocumentID)
		}
		groups[sc.DocumentID] = append(groups[sc.DocumentID], i)
	}

	taken := make(map[int]bool)
	var selected []int

	// First pass: every document's best chunk that clears the floor.
	for _, docID := range docOrder {
		best := groups[docID][0]
		if ranked[best].Score > s.cfg.MinChunkScore {
			taken[best] = true
			selected = append(selected, best)
		}
	}

	// Second pass: spread remaining slots proportionally across documents.
	// Total additions stay within the remaining budget so the final
	// truncation can never evict a document's first-pass representative.
	if remaining := maxChunks - len(selected); remaining > 0 {
		perDoc := (remaining+len(docOrder)-1)/len(docOrder) + 1
		total := 0
		for _, docID := range docOrder {
			added := 0
			for _, idx := range groups[docID] {
				if total >= remaining {
					break
				}
				if taken[idx] || added >= perDoc {
					continue
				}
				if ranked[idx].Score > s.cfg.MinChunkScore {
					taken[idx] = true
					selected = append(selected, idx)
					added++
					total++
				}
			}
			if total >= remaining {
				break
			}
		}
	}

	// Merge: input indices ascending restores the original ranking, then a
	// stable sort by score keeps that ranking for equal scores.
	sort.Ints(selected)
	out := make([]ScoredChunk, 0, len(selected))
	for _, idx := range selected {
		out = append(out, ranked[idx])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if len(out) > maxChunks {
		out = out[:maxChunks]
	}
	return out
}
