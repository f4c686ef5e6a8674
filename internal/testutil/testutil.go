//go:build integration || e2e

package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// TestDB is the Redis database the integration tests own. It is flushed
// freely, so never point it at a database holding real configuration.
const TestDB = 9

// RedisAddr is the test Redis instance from CONFMODE_TEST_REDIS_ADDR, or "".
func RedisAddr() string {
	return os.Getenv("CONFMODE_TEST_REDIS_ADDR")
}

// SkipIfNoRedis skips t unless the test Redis instance answers PING.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()
	if RedisAddr() == "" {
		t.Skip("set CONFMODE_TEST_REDIS_ADDR to run Redis store tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient(t, TestDB).Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis at %s unreachable: %v", RedisAddr(), err)
	}
}

// SeedPath returns testdata/seed/name under the module root.
func SeedPath(name string) string {
	return filepath.Join(moduleRoot(), "testdata", "seed", name)
}

func moduleRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// Context returns a context canceled when t ends or after 30 seconds.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
