package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore backs the document service with redis: one hash per document,
// one set per collection for membership, and one pub/sub channel per path
// for change push. Channel order follows publish order, which is the
// store-defined order subscribers observe.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// ConnectRedis initializes a Redis client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func docKey(path string) string     { return "doc:" + path }
func revKey(path string) string     { return "rev:" + path }
func colKey(col string) string      { return "col:" + col }
func channelKey(path string) string { return "store:" + path }

func (r *RedisStore) CreateDocument(ctx context.Context, collection string, fields Fields) (string, error) {
	id := uuid.NewString()
	withID := make(Fields, len(fields)+1)
	for k, v := range fields {
		withID[k] = v
	}
	withID["id"] = id
	if err := r.PutDocument(ctx, collection+"/"+id, withID); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisStore) PutDocument(ctx context.Context, path string, fields Fields) error {
	enc, err := encodeFields(fields)
	if err != nil {
		return err
	}
	vals := make(map[string]interface{}, len(enc))
	for k, raw := range enc {
		vals[k] = string(raw)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, docKey(path))
	pipe.HSet(ctx, docKey(path), vals)
	if col := parentCollection(path); col != "" {
		pipe.SAdd(ctx, colKey(col), path)
	}
	rev := pipe.Incr(ctx, revKey(path))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put %s: %w", path, err)
	}
	return r.publish(ctx, path, rev.Val())
}

func (r *RedisStore) GetDocument(ctx context.Context, path string, out interface{}) error {
	data, err := r.readDoc(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (r *RedisStore) UpdateFields(ctx context.Context, path string, fields Fields) error {
	exists, err := r.rdb.Exists(ctx, docKey(path)).Result()
	if err != nil {
		return fmt.Errorf("redis exists %s: %w", path, err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	enc, err := encodeFields(fields)
	if err != nil {
		return err
	}
	vals := make(map[string]interface{}, len(enc))
	for k, raw := range enc {
		vals[k] = string(raw)
	}

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, docKey(path), vals)
	rev := pipe.Incr(ctx, revKey(path))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis update %s: %w", path, err)
	}
	return r.publish(ctx, path, rev.Val())
}

func (r *RedisStore) DeleteDocument(ctx context.Context, path string) error {
	removed, err := r.rdb.Del(ctx, docKey(path)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", path, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	if col := parentCollection(path); col != "" {
		r.rdb.SRem(ctx, colKey(col), path)
	}
	rev, _ := r.rdb.Incr(ctx, revKey(path)).Result()
	return r.publishSnapshot(ctx, Snapshot{Path: path, Rev: rev})
}

func (r *RedisStore) ListDocuments(ctx context.Context, collection string) ([]Snapshot, error) {
	paths, err := r.rdb.SMembers(ctx, colKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", collection, err)
	}
	var snaps []Snapshot
	for _, path := range paths {
		data, err := r.readDoc(ctx, path)
		if err == ErrNotFound {
			// Stale membership after an expired or partially deleted doc.
			r.rdb.SRem(ctx, colKey(collection), path)
			continue
		}
		if err != nil {
			return nil, err
		}
		rev, _ := r.rdb.Get(ctx, revKey(path)).Int64()
		snaps = append(snaps, Snapshot{Path: path, Rev: rev, Data: data})
	}
	return snaps, nil
}

func (r *RedisStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, func(), error) {
	ps := r.rdb.Subscribe(ctx, channelKey(path))
	// Force the subscription to be established before the first write races it.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe %s: %w", path, err)
	}

	out := make(chan Snapshot, subBuffer)
	if data, err := r.readDoc(ctx, path); err == nil {
		rev, _ := r.rdb.Get(ctx, revKey(path)).Int64()
		out <- Snapshot{Path: path, Rev: rev, Data: data}
	}

	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var snap Snapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				continue
			}
			select {
			case out <- snap:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- snap:
				default:
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() { ps.Close() })
	}
	return out, stop, nil
}

// readDoc assembles the full JSON document stored in the path's hash.
func (r *RedisStore) readDoc(ctx context.Context, path string) ([]byte, error) {
	vals, err := r.rdb.HGetAll(ctx, docKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", path, err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	doc := make(map[string]json.RawMessage, len(vals))
	for k, v := range vals {
		doc[k] = json.RawMessage(v)
	}
	return json.Marshal(doc)
}

func (r *RedisStore) publish(ctx context.Context, path string, rev int64) error {
	data, err := r.readDoc(ctx, path)
	if err != nil && err != ErrNotFound {
		return err
	}
	return r.publishSnapshot(ctx, Snapshot{Path: path, Rev: rev, Data: data})
}

func (r *RedisStore) publishSnapshot(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, channelKey(snap.Path), payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", snap.Path, err)
	}
	if col := parentCollection(snap.Path); col != "" {
		if err := r.rdb.Publish(ctx, channelKey(col), payload).Err(); err != nil {
			return fmt.Errorf("redis publish %s: %w", col, err)
		}
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
