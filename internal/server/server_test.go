package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"iwitness/internal/config"
	criteriaService "iwitness/internal/service/criteria"
	"iwitness/internal/service/geo"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	manager := criteriaService.NewManager(nil, nil, nil, geo.Distance, nil, criteriaService.ManagerConfig{
		Location:     time.UTC,
		UseLocalTime: true,
	}, slog.Default())
	t.Cleanup(func() { _ = manager.Stop(context.Background()) })

	return NewRouter(ctx, config.ServerConfig{CorsOrigins: []string{"http://app.test"}}, config.RateLimitConfig{
		RPS:   100,
		Burst: 100,
		TTL:   time.Minute,
	}, Dependencies{
		Sessions: manager,
		Resolver: criteriaService.NewLocationResolver(nil, criteriaService.LocationResolverConfig{}, nil),
		Logger:   slog.Default(),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body)
	}
}

func TestRouter_SessionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"resolveLocation": false}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: unexpected status %d: %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get unknown: unexpected status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/geo/locate", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"zoom":11`) {
		t.Fatalf("locate: unexpected response %d %s", rec.Code, rec.Body)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions/abc", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPatch) {
		t.Fatalf("PATCH not allowed: %q", got)
	}
}
