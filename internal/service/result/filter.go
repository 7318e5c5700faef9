// internal/service/result/filter.go

package result

import (
	"sort"

	"iwitness/internal/domain/criteria"
	"iwitness/internal/domain/result"
	"iwitness/internal/service/geo"
)

// Filter keeps the results that match the search parameters: posted inside
// [Start, End] when those are set, and located inside the viewport when
// both the result and the parameters carry coordinates. The output is
// sorted newest first.
func Filter(results []result.Result, params criteria.SearchParams) []result.Result {
	var viewport *geo.Viewport
	if params.NorthEast != nil && params.SouthWest != nil {
		v := geo.NewViewport(*params.SouthWest, *params.NorthEast)
		viewport = &v
	}

	kept := make([]result.Result, 0, len(results))
	for _, r := range results {
		if params.Start != nil && r.PostedAt.Before(*params.Start) {
			continue
		}
		if params.End != nil && r.PostedAt.After(*params.End) {
			continue
		}
		if viewport != nil && r.Coordinates != nil && !viewport.Contains(*r.Coordinates) {
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PostedAt.After(kept[j].PostedAt)
	})

	return kept
}
