package rag

import (
	"math"

	"github.com/renal-diet-poc/server/internal/rag/vectorstore"
)

// maxMarginalRelevance picks k candidates balancing similarity to the query
// (weight lambda) against similarity to what is already selected.
func maxMarginalRelevance(query []float64, candidates []vectorstore.Match, k int, lambda float64) []vectorstore.Match {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	k = min(k, len(candidates))

	querySim := make([]float64, len(candidates))
	for i, c := range candidates {
		querySim[i] = vectorstore.CosineSimilarity(query, c.Vector)
	}

	used := make([]bool, len(candidates))
	selected := make([]int, 0, k)
	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
				for _, j := range selected {
					redundancy = math.Max(redundancy, vectorstore.CosineSimilarity(c.Vector, candidates[j].Vector))
				}
			}
			score := lambda*querySim[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		selected = append(selected, best)
	}

	out := make([]vectorstore.Match, 0, k)
	for _, i := range selected {
		m := candidates[i]
		m.Score = querySim[i]
		out = append(out, m)
	}
	return out
}
