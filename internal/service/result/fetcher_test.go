package result_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"iwitness/internal/domain/criteria"
	"iwitness/internal/service/result"
)

func TestSearchQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		keyword string
		radius  int
		want    string
	}{
		{name: "keyword", keyword: " fire ", radius: 10, want: "fire point_radius:[-122.42 37.77 10km]"},
		{name: "no keyword", radius: 10, want: "point_radius:[-122.42 37.77 10km]"},
		{name: "radius clamped", keyword: "fire", radius: 75, want: "fire point_radius:[-122.42 37.77 40km]"},
		{name: "zero radius", keyword: "fire", radius: 0, want: "fire point_radius:[-122.42 37.77 1km]"},
	}

	for _, tt := range tests {
		if got := result.SearchQuery(tt.keyword, criteria.LatLng{37.77, -122.42}, tt.radius); got != tt.want {
			t.Errorf("%s: got=%q want=%q", tt.name, got, tt.want)
		}
	}
}

func TestTwitterFetcher_Disabled(t *testing.T) {
	t.Parallel()

	f := result.NewTwitterFetcher(result.TwitterConfig{}, nil)
	if f.Enabled() {
		t.Fatalf("fetcher without token must be disabled")
	}

	_, err := f.Fetch(context.Background(), criteria.SearchParams{}, 10, criteria.LatLng{0, 1}, "")
	if !errors.Is(err, result.ErrFetcherDisabled) {
		t.Fatalf("expected ErrFetcherDisabled, got %v", err)
	}
}

func TestTwitterFetcher_Fetch(t *testing.T) {
	t.Parallel()

	type seen struct {
		path, auth, query, startTime string
	}
	requests := make(chan seen, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- seen{
			path:      r.URL.Path,
			auth:      r.Header.Get("Authorization"),
			query:     r.URL.Query().Get("query"),
			startTime: r.URL.Query().Get("start_time"),
		}
		w.Header().Set("Content-Type", "application/json")
		body := strings.TrimSuffix(tweetPayload, "}") + `, "meta": {"result_count": 3, "next_token": "page-2"}}`
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := result.NewTwitterFetcher(result.TwitterConfig{BearerToken: "token", Host: srv.URL}, nil)

	start := time.Date(2013, 6, 1, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	params := criteria.SearchParams{Keyword: "smoke", Start: &start, End: &end}

	page, err := f.Fetch(context.Background(), params, 10, criteria.LatLng{37.77, -122.42}, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	req := <-requests
	if req.path != "/2/tweets/search/recent" {
		t.Fatalf("unexpected path: %q", req.path)
	}
	if req.auth != "Bearer token" {
		t.Fatalf("unexpected auth header: %q", req.auth)
	}
	if req.query != "smoke point_radius:[-122.42 37.77 10km]" {
		t.Fatalf("unexpected query: %q", req.query)
	}
	if req.startTime == "" {
		t.Fatalf("expected start_time to be sent")
	}

	if page.NextToken != "page-2" {
		t.Fatalf("unexpected next token: %q", page.NextToken)
	}
	if len(page.Results) != 2 || page.Results[0].ID != "1002" || page.Results[1].ID != "1001" {
		t.Fatalf("unexpected results: %+v", page.Results)
	}
}
