package ranking

import (
	"slices"

	"github.com/Nexo-Labs/SyncTionNotion/internal/models"
	"github.com/agnivade/levenshtein"
)

// Rank orders candidates by the edit distance between their label and query,
// closest first. Candidates at the same distance keep their relative order.
func Rank(candidates []models.Option, query string) []models.Option {
	type scored struct {
		option   models.Option
		distance int
	}

	scoredOptions := make([]scored, len(candidates))
	for i, candidate := range candidates {
		scoredOptions[i] = scored{
			option:   candidate,
			distance: levenshtein.ComputeDistance(candidate.Label, query),
		}
	}

	slices.SortStableFunc(scoredOptions, func(a, b scored) int {
		return a.distance - b.distance
	})

	ranked := make([]models.Option, len(scoredOptions))
	for i, s := range scoredOptions {
		ranked[i] = s.option
	}
	return ranked
}
