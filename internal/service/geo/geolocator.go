// internal/service/geo/geolocator.go

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"iwitness/internal/domain/criteria"
)

type clientIPKey struct{}

// WithClientIP stores the requesting viewer's IP address in ctx
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the viewer IP stored by WithClientIP
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// HTTPGeolocatorConfig contains configuration for the IP geolocation client
type HTTPGeolocatorConfig struct {
	URL     string
	Timeout time.Duration
}

// HTTPGeolocator looks up the viewer's position with a freegeoip-style
// JSON service: GET <url>[<ip>] → {"latitude": .., "longitude": ..}
type HTTPGeolocator struct {
	client *http.Client
	config HTTPGeolocatorConfig
}

// NewHTTPGeolocator creates a new IP geolocation client
func NewHTTPGeolocator(config HTTPGeolocatorConfig) *HTTPGeolocator {
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}
	return &HTTPGeolocator{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
	}
}

// Locate implements criteria.Geolocator. A payload without coordinates is
// returned as is; the caller decides what to do with it.
func (g *HTTPGeolocator) Locate(ctx context.Context) (*criteria.Geolocation, error) {
	endpoint := g.config.URL
	if ip := ClientIP(ctx); ip != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		endpoint += url.PathEscape(ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling geolocation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geolocation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var geo criteria.Geolocation
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return nil, fmt.Errorf("error decoding geolocation response: %w", err)
	}

	return &geo, nil
}
