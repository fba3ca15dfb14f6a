package sheetdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/evensia-dev/evensia/internal/common"
	"github.com/rs/zerolog"
)

func TestStoreCreateAndList(t *testing.T) {
	store := NewStore(nil, nil)
	ctx := context.Background()

	_, err := store.Create(ctx, "messages", ActionCreate, Record{"id": "1", "fullname": "Alice"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	records, err := store.List(ctx, "messages")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0]["fullname"] != "Alice" {
		t.Errorf("Unexpected records: %v", records)
	}
}

func TestStoreListUnknownSheet(t *testing.T) {
	store := NewStore(nil, nil)

	_, err := store.List(context.Background(), "nope")
	if !errors.Is(err, common.ErrSheetNotFound) {
		t.Errorf("Expected ErrSheetNotFound, got %v", err)
	}
}

func TestStoreRSVPStampsTimestamps(t *testing.T) {
	store := NewStore(nil, nil)
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	stored, err := store.Create(context.Background(), "messages", ActionRSVP, Record{"id": "1", "fullname": "Alice"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	want := "2026-06-01T12:00:00Z"
	if stored["created_at"] != want || stored["updated_at"] != want {
		t.Errorf("Expected stamped timestamps, got %v", stored)
	}
}

func TestStoreRSVPKeepsCallerTimestamps(t *testing.T) {
	store := NewStore(nil, nil)

	stored, err := store.Create(context.Background(), "messages", ActionRSVP,
		Record{"id": "1", "created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if stored["created_at"] != "2025-01-01T00:00:00Z" {
		t.Errorf("Caller timestamp overwritten: %v", stored["created_at"])
	}
}

func TestStorePhotoStampsCreatedAt(t *testing.T) {
	store := NewStore(nil, nil)

	stored, err := store.Create(context.Background(), "post", ActionUploadPhoto, Record{"id": "1", "image": "https://example.com/x"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if stored["createdAt"] == nil || stored["createdAt"] == "" {
		t.Errorf("Expected createdAt stamp, got %v", stored)
	}
	// rsvp-style snake_case stamps must not appear on photo records.
	if _, ok := stored["created_at"]; ok {
		t.Errorf("Unexpected created_at on photo record")
	}
}

func TestStoreConcurrentCreatesUnionHeaders(t *testing.T) {
	store := NewStore(nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			field := fmt.Sprintf("extra_%d", i)
			_, err := store.CreateOrdered(ctx, "messages", ActionCreate,
				Record{"id": fmt.Sprintf("%d", i), field: "v"}, []string{"id", field})
			if err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	headers, err := store.Headers("messages")
	if err != nil {
		t.Fatalf("Headers failed: %v", err)
	}
	seen := map[string]bool{}
	for _, h := range headers {
		seen[h] = true
	}
	if !seen["id"] || !seen["extra_0"] || !seen["extra_1"] {
		t.Errorf("Expected union of both field sets, got %v", headers)
	}
	if len(headers) != 3 {
		t.Errorf("Expected 3 headers, got %v", headers)
	}

	records, _ := store.List(ctx, "messages")
	if len(records) != 2 {
		t.Errorf("Expected both creates to succeed, got %d records", len(records))
	}
}

func TestStoreUpdateDelete(t *testing.T) {
	store := NewStore(nil, nil)
	ctx := context.Background()

	store.Create(ctx, "messages", ActionCreate, Record{"id": "1", "message": "a"})

	if err := store.Update(ctx, "messages", "1", Record{"message": "b"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	records, _ := store.List(ctx, "messages")
	if records[0]["message"] != "b" {
		t.Errorf("Expected updated message, got %v", records[0])
	}

	if err := store.Update(ctx, "messages", "missing", Record{"x": "y"}); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := store.Delete(ctx, "messages", "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	records, _ = store.List(ctx, "messages")
	if len(records) != 0 {
		t.Errorf("Expected empty sheet, got %v", records)
	}
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersistence(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPersistence failed: %v", err)
	}

	store := NewStore(nil, p)
	store.Create(context.Background(), "messages", ActionCreate, Record{"id": "1", "fullname": "Alice"})
	store.Wait()

	loaded, err := p.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	restored := NewStore(loaded, nil)
	records, err := restored.List(context.Background(), "messages")
	if err != nil {
		t.Fatalf("List after reload failed: %v", err)
	}
	if len(records) != 1 || records[0]["fullname"] != "Alice" {
		t.Errorf("Unexpected records after reload: %v", records)
	}
}

func TestMigrateCopiesSheets(t *testing.T) {
	ctx := context.Background()
	src := NewStore(nil, nil)
	dst := NewStore(nil, nil)

	src.Create(ctx, "messages", ActionCreate, Record{"id": "1", "fullname": "Alice"})
	src.Create(ctx, "post", ActionCreate, Record{"id": "2", "image": "https://example.com/a"})

	if err := Migrate(ctx, src, dst, []string{"messages", "post"}); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	records, err := dst.List(ctx, "post")
	if err != nil || len(records) != 1 {
		t.Errorf("Expected migrated photo record, got %v (err %v)", records, err)
	}
}
