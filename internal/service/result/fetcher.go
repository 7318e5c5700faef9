// internal/service/result/fetcher.go

package result

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/g8rswimmer/go-twitter/v2"

	"iwitness/internal/domain/criteria"
	"iwitness/internal/domain/result"
)

// maxPointRadiusKm is the largest radius the point_radius operator accepts (25mi)
const maxPointRadiusKm = 40

// ErrFetcherDisabled is returned when no Twitter credentials are configured
var ErrFetcherDisabled = errors.New("twitter fetcher is not configured")

// TwitterConfig contains configuration for the Twitter recent search fetcher
type TwitterConfig struct {
	BearerToken string
	Host        string
	MaxResults  int
	Timeout     time.Duration
}

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// TwitterFetcher runs a session's search against the Twitter API v2
// recent search endpoint
type TwitterFetcher struct {
	client *twitter.Client
	config TwitterConfig
	logger *slog.Logger
}

// NewTwitterFetcher creates a new fetcher
func NewTwitterFetcher(config TwitterConfig, logger *slog.Logger) *TwitterFetcher {
	if config.Host == "" {
		config.Host = "https://api.twitter.com"
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 100
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TwitterFetcher{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: config.BearerToken},
			Client:     &http.Client{Timeout: config.Timeout},
			Host:       config.Host,
		},
		config: config,
		logger: logger,
	}
}

// Enabled reports whether credentials are configured
func (f *TwitterFetcher) Enabled() bool {
	return f != nil && f.config.BearerToken != ""
}

// Fetch runs the search described by params and returns the matching
// results, already filtered against the time window and viewport
func (f *TwitterFetcher) Fetch(ctx context.Context, params criteria.SearchParams, radiusKm int, center criteria.LatLng, nextToken string) (result.Page, error) {
	if !f.Enabled() {
		return result.Page{}, ErrFetcherDisabled
	}

	opts := twitter.TweetRecentSearchOpts{
		Expansions: []twitter.Expansion{twitter.ExpansionAuthorID},
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldAuthorID,
			twitter.TweetFieldGeo,
			twitter.TweetFieldEntities,
		},
		UserFields: []twitter.UserField{
			twitter.UserFieldName,
			twitter.UserFieldUserName,
			twitter.UserFieldProfileImageURL,
		},
		MaxResults: f.config.MaxResults,
		NextToken:  nextToken,
	}
	if !params.Stream {
		if params.Start != nil {
			opts.StartTime = *params.Start
		}
		if params.End != nil {
			opts.EndTime = *params.End
		}
	}

	query := SearchQuery(params.Keyword, center, radiusKm)

	resp, err := f.client.TweetRecentSearch(ctx, query, opts)
	if err != nil {
		return result.Page{}, fmt.Errorf("error searching tweets: %w", err)
	}

	page := result.Page{Results: Filter(FromTweets(resp.Raw), params)}
	if resp.Meta != nil {
		page.NextToken = resp.Meta.NextToken
	}

	f.logger.Debug("twitter search complete",
		slog.String("query", query),
		slog.Int("results", len(page.Results)),
	)

	return page, nil
}

// SearchQuery builds a recent search query for a keyword around a point
func SearchQuery(keyword string, center criteria.LatLng, radiusKm int) string {
	if radiusKm <= 0 {
		radiusKm = 1
	}
	if radiusKm > maxPointRadiusKm {
		radiusKm = maxPointRadiusKm
	}

	var parts []string
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		parts = append(parts, keyword)
	}
	parts = append(parts, fmt.Sprintf("point_radius:[%s %s %skm]",
		strconv.FormatFloat(center.Lng(), 'f', -1, 64),
		strconv.FormatFloat(center.Lat(), 'f', -1, 64),
		strconv.Itoa(radiusKm),
	))

	return strings.Join(parts, " ")
}
