package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestHSetUpsertsFields(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.TrackingKey("sensor-tracking", "proj/cam/IMG.JPG")
	if err := client.HSet(ctx, key, map[string]any{
		"processing_status": "PROCESSING",
		"updated_at":        "2024-01-01T00:00:00Z",
	}); err != nil {
		t.Fatalf("hset failed: %v", err)
	}

	fields, err := client.HGetAll(ctx, key)
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if fields["processing_status"] != "PROCESSING" {
		t.Fatalf("unexpected fields %v", fields)
	}

	// second write overwrites the status but keeps other fields
	if err := client.HSet(ctx, key, map[string]any{"processing_status": "DETECTION_COMPLETE"}); err != nil {
		t.Fatalf("hset failed: %v", err)
	}
	fields, _ = client.HGetAll(ctx, key)
	if fields["processing_status"] != "DETECTION_COMPLETE" {
		t.Fatalf("expected status overwrite, got %v", fields)
	}
	if fields["updated_at"] == "" {
		t.Fatalf("expected untouched fields to survive, got %v", fields)
	}
}

func TestExpireRecordsTTL(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Expire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expire calls = %+v", mock.expireCalls)
	}
}

func TestTrackingKeyBuilder(t *testing.T) {
	client := &Client{}
	if got := client.TrackingKey("sensor-tracking", "a/b/c.jpg"); got != "ws:sensor-tracking:a/b/c.jpg" {
		t.Fatalf("unexpected tracking key %s", got)
	}
	if got := client.TrackingKey("", "a/b/c.jpg"); got != "ws:a/b/c.jpg" {
		t.Fatalf("empty prefix should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	hashes      map[string]map[string]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{hashes: make(map[string]map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.hashes[key] = hash
	}
	var added int64
	for i := 0; i+1 < len(values); i += 2 {
		field := fmt.Sprint(values[i])
		if _, exists := hash[field]; !exists {
			added++
		}
		hash[field] = fmt.Sprint(values[i+1])
	}
	return redis.NewIntResult(added, nil)
}

func (m *mockCmdable) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	hash := m.hashes[key]
	out := make(map[string]string, len(hash))
	for k, v := range hash {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}
