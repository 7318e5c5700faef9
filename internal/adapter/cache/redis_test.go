//go:build integration

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"iwitness/internal/config"
)

var (
	testClient *redis.Client
	tc         testcontainers.Container
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	var err error
	tc, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	mappedPort, _ := tc.MappedPort(ctx, "6379/tcp")

	testClient, err = NewRedisClient(ctx, config.RedisConfig{
		Addr: fmt.Sprintf("%s:%s", host, mappedPort.Port()),
	}, slog.Default())
	if err != nil {
		fmt.Println("NewRedisClient:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	_ = testClient.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func TestOffsetCache_Miss(t *testing.T) {
	c := NewOffsetCache(testClient)

	_, found, err := c.GetOffset(context.Background(), "tz:missing")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if found {
		t.Fatalf("expected miss")
	}
}

func TestOffsetCache_SetGet(t *testing.T) {
	c := NewOffsetCache(testClient)
	ctx := context.Background()

	if err := c.SetOffset(ctx, "tz:39.74:-104.99:1370095200", -360, time.Minute); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, found, err := c.GetOffset(ctx, "tz:39.74:-104.99:1370095200")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !found || got != -360 {
		t.Fatalf("unexpected offset: got=%d found=%v", got, found)
	}

	ttl, err := testClient.TTL(ctx, "iwitness:tz:39.74:-104.99:1370095200").Result()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}
}

func TestOffsetCache_Corrupt(t *testing.T) {
	c := NewOffsetCache(testClient)
	ctx := context.Background()

	if err := testClient.Set(ctx, "iwitness:tz:corrupt", "not-a-number", time.Minute).Err(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, _, err := c.GetOffset(ctx, "tz:corrupt"); err == nil {
		t.Fatalf("expected parse error")
	}
}
