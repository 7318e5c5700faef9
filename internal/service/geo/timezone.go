// internal/service/geo/timezone.go

package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"iwitness/internal/domain/criteria"
)

// ErrOffsetLookup is returned when the timezone service rejects a lookup
var ErrOffsetLookup = errors.New("timezone offset lookup failed")

// HTTPOffsetServiceConfig contains configuration for the timezone client
type HTTPOffsetServiceConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// HTTPOffsetService resolves UTC offsets with the TimeZoneDB get-time-zone API
type HTTPOffsetService struct {
	client *http.Client
	config HTTPOffsetServiceConfig
}

// NewHTTPOffsetService creates a new timezone offset client
func NewHTTPOffsetService(config HTTPOffsetServiceConfig) *HTTPOffsetService {
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}
	return &HTTPOffsetService{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
	}
}

type timezoneResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ZoneName  string `json:"zoneName"`
	GMTOffset int    `json:"gmtOffset"`
}

// UTCOffset implements criteria.OffsetService
func (s *HTTPOffsetService) UTCOffset(ctx context.Context, lat, lng float64, at time.Time) (int, error) {
	query := url.Values{}
	query.Set("key", s.config.APIKey)
	query.Set("format", "json")
	query.Set("by", "position")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("time", strconv.FormatInt(at.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("error creating timezone request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error calling timezone service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrOffsetLookup, resp.StatusCode)
	}

	var body timezoneResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("error decoding timezone response: %w", err)
	}
	if body.Status != "OK" {
		return 0, fmt.Errorf("%w: %s", ErrOffsetLookup, body.Message)
	}

	return body.GMTOffset / 60, nil
}

// OffsetCache stores offsets in minutes by key
type OffsetCache interface {
	GetOffset(ctx context.Context, key string) (minutes int, found bool, err error)
	SetOffset(ctx context.Context, key string, minutes int, ttl time.Duration) error
}

// CachedOffsetService memoizes another OffsetService. Positions are bucketed
// to two decimal places and instants to the hour.
type CachedOffsetService struct {
	next   criteria.OffsetService
	cache  OffsetCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedOffsetService creates a caching decorator around next
func NewCachedOffsetService(next criteria.OffsetService, cache OffsetCache, ttl time.Duration, logger *slog.Logger) *CachedOffsetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedOffsetService{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// UTCOffset implements criteria.OffsetService. Cache failures are logged and
// the lookup goes to the underlying service.
func (s *CachedOffsetService) UTCOffset(ctx context.Context, lat, lng float64, at time.Time) (int, error) {
	key := OffsetKey(lat, lng, at)

	minutes, found, err := s.cache.GetOffset(ctx, key)
	if err != nil {
		s.logger.Warn("offset cache read failed", slog.String("key", key), slog.Any("error", err))
	} else if found {
		return minutes, nil
	}

	minutes, err = s.next.UTCOffset(ctx, lat, lng, at)
	if err != nil {
		return 0, err
	}

	if err := s.cache.SetOffset(ctx, key, minutes, s.ttl); err != nil {
		s.logger.Warn("offset cache write failed", slog.String("key", key), slog.Any("error", err))
	}

	return minutes, nil
}

// OffsetKey is the cache key for a position and instant
func OffsetKey(lat, lng float64, at time.Time) string {
	return fmt.Sprintf("tz:%.2f:%.2f:%d", round2(lat), round2(lng), at.UTC().Truncate(time.Hour).Unix())
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // no "-0.00"
	}
	return r
}
