package result

import (
	"cmp"
	"slices"
)

// Band is a coarse quality label for a similarity score.
type Band string

// Score bands.
const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
)

// Band thresholds.
const (
	ExcellentThreshold = 0.8
	GoodThreshold      = 0.6
)

// Result is a single search hit: only what the caller may see.
type Result struct {
	name  string
	role  string
	score float64
}

// New creates a search result.
func New(name, role string, score float64) Result {
	return Result{name: name, role: role, score: score}
}

// Name returns the person's name.
func (r Result) Name() string { return r.name }

// Role returns the free-text job title.
func (r Result) Role() string { return r.role }

// Score returns the cosine similarity, higher is more relevant.
func (r Result) Score() float64 { return r.score }

// Band classifies the score.
func (r Result) Band() Band {
	switch {
	case r.score >= ExcellentThreshold:
		return BandExcellent
	case r.score >= GoodThreshold:
		return BandGood
	default:
		return BandFair
	}
}

// Rank sorts results by score descending, ties by name ascending, and caps them at limit.
// The input slice is not modified.
func Rank(results []Result, limit int) []Result {
	out := slices.Clone(results)
	slices.SortStableFunc(out, func(a, b Result) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AverageScore returns the mean score, or 0 for no results.
func AverageScore(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.score
	}
	return sum / float64(len(results))
}
