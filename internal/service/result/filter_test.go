package result_test

import (
	"testing"
	"time"

	"iwitness/internal/domain/criteria"
	domain "iwitness/internal/domain/result"
	"iwitness/internal/service/result"
)

func TestFilter(t *testing.T) {
	t.Parallel()

	start := time.Date(2013, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	ne := criteria.LatLng{2, 3}
	sw := criteria.LatLng{-2, -1}

	at := func(minutes int) time.Time { return start.Add(time.Duration(minutes) * time.Minute) }
	point := func(lat, lng float64) *criteria.LatLng { return &criteria.LatLng{lat, lng} }

	results := []domain.Result{
		{ID: "early", PostedAt: at(-1), Coordinates: point(0, 1)},
		{ID: "inside", PostedAt: at(10), Coordinates: point(0, 1)},
		{ID: "outside", PostedAt: at(20), Coordinates: point(10, 10)},
		{ID: "no-geo", PostedAt: at(30)},
		{ID: "at-end", PostedAt: at(60), Coordinates: point(2, 3)},
		{ID: "late", PostedAt: at(61)},
	}

	tests := []struct {
		name   string
		params criteria.SearchParams
		want   []string
	}{
		{
			name:   "window and viewport",
			params: criteria.SearchParams{Start: &start, End: &end, NorthEast: &ne, SouthWest: &sw},
			want:   []string{"at-end", "no-geo", "inside"},
		},
		{
			name:   "viewport only",
			params: criteria.SearchParams{NorthEast: &ne, SouthWest: &sw},
			want:   []string{"late", "at-end", "no-geo", "inside", "early"},
		},
		{
			name:   "window only",
			params: criteria.SearchParams{Start: &start, End: &end},
			want:   []string{"at-end", "no-geo", "outside", "inside"},
		},
		{
			name:   "no constraints",
			params: criteria.SearchParams{},
			want:   []string{"late", "at-end", "no-geo", "outside", "inside", "early"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := result.Filter(results, tt.params)
			if len(got) != len(tt.want) {
				t.Fatalf("unexpected count: got=%d want=%d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.ID != tt.want[i] {
					t.Fatalf("unexpected order at %d: got=%s want=%s", i, r.ID, tt.want[i])
				}
			}
		})
	}
}
