//go:build integration || e2e

package testutil

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/go-redis/redis/v8"
)

// Seed is the content of a seed file: table -> key -> hash fields. A key
// joins path elements with "|" ("protocols|rip|interface|eth0"); an empty
// field map becomes the NULL placeholder hash.
type Seed map[string]map[string]map[string]string

// LoadSeed reads a JSON seed file.
func LoadSeed(t *testing.T, path string) Seed {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading seed %s: %v", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		t.Fatalf("parsing seed %s: %v", path, err)
	}
	return seed
}

// redisClient opens a client on db and closes it when the test ends.
func redisClient(t *testing.T, db int) *redis.Client {
	t.Helper()
	c := redis.NewClient(&redis.Options{Addr: RedisAddr(), DB: db})
	t.Cleanup(func() { c.Close() })
	return c
}

// SeedRedis writes every hash of seed into db in one pipeline.
func SeedRedis(t *testing.T, db int, seed Seed) {
	t.Helper()
	ctx := context.Background()
	pipe := redisClient(t, db).TxPipeline()
	for table, entries := range seed {
		for key, fields := range entries {
			pipe.HSet(ctx, table+"|"+key, hashArgs(fields)...)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		t.Fatalf("seeding redis db %d: %v", db, err)
	}
}

func hashArgs(fields map[string]string) []interface{} {
	if len(fields) == 0 {
		return []interface{}{"NULL", "NULL"}
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	args := make([]interface{}, 0, 2*len(names))
	for _, k := range names {
		args = append(args, k, fields[k])
	}
	return args
}

// SetupConfigDB skips without Redis, then flushes TestDB and loads
// testdata/seed/config.json into it.
func SetupConfigDB(t *testing.T) {
	t.Helper()
	SkipIfNoRedis(t)
	c := redisClient(t, TestDB)
	if err := c.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing redis db %d: %v", TestDB, err)
	}
	SeedRedis(t, TestDB, LoadSeed(t, SeedPath("config.json")))
}

// ReadEntry returns the hash stored for path elements under table.
func ReadEntry(t *testing.T, db int, table string, path ...string) map[string]string {
	t.Helper()
	key := entryKey(table, path)
	fields, err := redisClient(t, db).HGetAll(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", key, err)
	}
	return fields
}

// EntryExists reports whether a hash is stored for path under table.
func EntryExists(t *testing.T, db int, table string, path ...string) bool {
	t.Helper()
	key := entryKey(table, path)
	n, err := redisClient(t, db).Exists(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("checking %s: %v", key, err)
	}
	return n > 0
}

func entryKey(table string, path []string) string {
	return strings.Join(append([]string{table}, path...), "|")
}
