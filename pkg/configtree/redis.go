package configtree

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/confmode/confmode/pkg/util"
)

// Default Redis tables for the proposed and effective trees.
const (
	DefaultTable        = "CONFIG"
	DefaultRunningTable = "RUNNING"
)

// RedisStore keeps a tree in Redis hashes, following the CONFIG_DB layout:
//
//	CONFIG|protocols|rip                 default-metric=1  network@=10.0.0.0/8,192.168.0.0/16
//	CONFIG|protocols|rip|interface|eth0  NULL=NULL
//
// Each interior node that has leaves is one hash. A field ending in "@" holds
// a comma-separated multi-value leaf. A hash holding only NULL marks an
// interior node (or valueless leaf) with no leaves of its own.
type RedisStore struct {
	client *redis.Client
	table  string
}

// NewRedisStore creates a store on the given Redis database and table prefix.
func NewRedisStore(addr string, db int, table string) *RedisStore {
	if table == "" {
		table = DefaultTable
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		table: table,
	}
}

// Ping tests the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load reads every hash under the table into a tree.
func (s *RedisStore) Load(ctx context.Context) (*Tree, error) {
	keys, err := scanKeys(ctx, s.client, escapeGlob(s.table)+"|*", 100)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.table, err)
	}
	sort.Strings(keys)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if len(keys) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return nil, fmt.Errorf("reading %s: %w", s.table, err)
		}
	}

	t := New()
	for i, key := range keys {
		path := strings.Split(key, "|")[1:]
		fields, err := cmds[i].Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		node, err := t.ensure(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		for field, value := range fields {
			switch {
			case field == "NULL":
			case strings.HasSuffix(field, "@"):
				node[strings.TrimSuffix(field, "@")] = util.SplitCommaSeparated(value)
			default:
				node[field] = value
			}
		}
	}
	return t, nil
}

// SaveSubtree replaces every hash under path with the entries of tree's
// subtree at path, in one MULTI/EXEC transaction.
func (s *RedisStore) SaveSubtree(ctx context.Context, tree *Tree, path ...string) error {
	var entries []redisEntry
	if v, ok := tree.node(path); ok {
		if m, ok := v.(map[string]any); ok {
			var err error
			if entries, err = flatten(m, path); err != nil {
				return err
			}
		}
	}

	prefix := s.key(path)
	stale, err := scanKeys(ctx, s.client, escapeGlob(prefix)+"|*", 100)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", prefix, err)
	}
	stale = append(stale, prefix)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, stale...)
	for _, e := range entries {
		pipe.HSet(ctx, s.key(e.path), e.args()...)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	return nil
}

func (s *RedisStore) key(path []string) string {
	return strings.Join(append([]string{s.table}, path...), "|")
}

type redisEntry struct {
	path   []string
	fields map[string]string
}

func (e redisEntry) args() []interface{} {
	if len(e.fields) == 0 {
		return []interface{}{"NULL", "NULL"}
	}
	names := make([]string, 0, len(e.fields))
	for k := range e.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	args := make([]interface{}, 0, len(names)*2)
	for _, k := range names {
		args = append(args, k, e.fields[k])
	}
	return args
}

// flatten turns the interior node m at path into hash entries. Multi-value
// leaves are stored comma-joined under "name@", so an element that is empty,
// holds a comma or has surrounding blanks cannot be stored.
func flatten(m map[string]any, path []string) ([]redisEntry, error) {
	var entries []redisEntry
	fields := map[string]string{}
	hasChildren := false

	for _, name := range sortedKeys(m) {
		child := append(append([]string(nil), path...), name)
		switch v := m[name].(type) {
		case string:
			fields[name] = v
		case []string:
			for _, elem := range v {
				if elem == "" || strings.Contains(elem, ",") || strings.TrimSpace(elem) != elem {
					return nil, fmt.Errorf("%s: value %q cannot be stored in a multi-value field", strings.Join(child, " "), elem)
				}
			}
			fields[name+"@"] = strings.Join(v, ",")
		case map[string]any:
			hasChildren = true
			if len(v) == 0 {
				entries = append(entries, redisEntry{path: child})
				continue
			}
			sub, err := flatten(v, child)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
		}
	}

	// The table root has no hash of its own, so top-level leaves are not stored.
	if len(path) > 0 && (len(fields) > 0 || !hasChildren) {
		entries = append([]redisEntry{{path: path, fields: fields}}, entries...)
	}
	return entries, nil
}

// scanKeys iterates Redis keys matching the given pattern using cursor-based
// SCAN instead of the blocking O(N) KEYS command.
func scanKeys(ctx context.Context, client *redis.Client, pattern string, countHint int64) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, countHint).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
