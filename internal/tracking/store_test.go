package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wildscope/wildscope-backend/pkg/enums"
)

type fakeKV struct {
	hashes  map[string]map[string]any
	expires map[string]time.Duration
	hsetErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		hashes:  make(map[string]map[string]any),
		expires: make(map[string]time.Duration),
	}
}

func (f *fakeKV) HSet(_ context.Context, key string, fields map[string]any) error {
	if f.hsetErr != nil {
		return f.hsetErr
	}
	existing, ok := f.hashes[key]
	if !ok {
		existing = make(map[string]any)
		f.hashes[key] = existing
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

func (f *fakeKV) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range f.hashes[key] {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

func (f *fakeKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.expires[key] = ttl
	return nil
}

func (f *fakeKV) TrackingKey(prefix, storageKey string) string {
	return "ws:" + prefix + ":" + storageKey
}

func TestPutStatusWritesEntry(t *testing.T) {
	kv := newFakeKV()
	store, err := New(kv, "sensor-tracking", time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	store.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }

	err = store.PutStatus(context.Background(), "proj/cam/a.jpg", enums.TrackingStatusProcessing, nil)
	if err != nil {
		t.Fatalf("put status: %v", err)
	}

	entry := kv.hashes["ws:sensor-tracking:proj/cam/a.jpg"]
	if entry == nil {
		t.Fatal("entry not written")
	}
	if entry["processing_status"] != "PROCESSING" {
		t.Fatalf("status = %v", entry["processing_status"])
	}
	if entry["file_key"] != "proj/cam/a.jpg" {
		t.Fatalf("file_key = %v", entry["file_key"])
	}
	if entry["updated_at"] != "2025-09-01T12:00:00Z" {
		t.Fatalf("updated_at = %v", entry["updated_at"])
	}
	if kv.expires["ws:sensor-tracking:proj/cam/a.jpg"] != time.Hour {
		t.Fatal("TTL not applied")
	}
}

func TestPutStatusMergesExtraFields(t *testing.T) {
	kv := newFakeKV()
	store, _ := New(kv, "sensor-tracking", 0)

	err := store.PutStatus(context.Background(), "a.jpg", enums.TrackingStatusDetectionComplete, map[string]any{
		"detection_count": 3,
		"has_animals":     true,
	})
	if err != nil {
		t.Fatalf("put status: %v", err)
	}

	entry := kv.hashes["ws:sensor-tracking:a.jpg"]
	if entry["detection_count"] != 3 || entry["has_animals"] != true {
		t.Fatalf("extra fields missing: %v", entry)
	}
	if len(kv.expires) != 0 {
		t.Fatal("zero TTL should skip Expire")
	}
}

func TestPutStatusUpsertsExisting(t *testing.T) {
	kv := newFakeKV()
	store, _ := New(kv, "sensor-tracking", 0)
	ctx := context.Background()

	_ = store.PutStatus(ctx, "a.jpg", enums.TrackingStatusProcessing, nil)
	_ = store.PutStatus(ctx, "a.jpg", enums.TrackingStatusDetectionFailed, map[string]any{
		"error_message": "boom",
	})

	entry := kv.hashes["ws:sensor-tracking:a.jpg"]
	if entry["processing_status"] != "DETECTION_FAILED" {
		t.Fatalf("status = %v", entry["processing_status"])
	}
	if entry["error_message"] != "boom" {
		t.Fatalf("error_message = %v", entry["error_message"])
	}
}

func TestPutStatusPropagatesWriteError(t *testing.T) {
	kv := newFakeKV()
	kv.hsetErr = errors.New("connection refused")
	store, _ := New(kv, "sensor-tracking", 0)

	err := store.PutStatus(context.Background(), "a.jpg", enums.TrackingStatusProcessing, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPutStatusRequiresKey(t *testing.T) {
	store, _ := New(newFakeKV(), "sensor-tracking", 0)
	if err := store.PutStatus(context.Background(), "", enums.TrackingStatusProcessing, nil); err == nil {
		t.Fatal("empty key should be rejected")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, "p", 0); err == nil {
		t.Fatal("nil kv should be rejected")
	}
	if _, err := New(newFakeKV(), "", 0); err == nil {
		t.Fatal("empty prefix should be rejected")
	}
}
