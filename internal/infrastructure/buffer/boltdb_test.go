package buffer

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fastygo/teamtasks/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func entry(msg string) []domain.ActivityEntry {
	return []domain.ActivityEntry{{Message: msg, Timestamp: "05/03/2024, 09:00:00"}}
}

func TestEnqueueKeepsOrder(t *testing.T) {
	store := openStore(t)
	for _, msg := range []string{"one", "two", "three"} {
		if err := store.Enqueue(Item{UserID: "u1", Entries: entry(msg)}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	items, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"one", "two", "three"} {
		if items[i].Entries[0].Message != want {
			t.Fatalf("item %d: expected %q, got %q", i, want, items[i].Entries[0].Message)
		}
	}

	items[0].Retries = 2
	if err := store.Update(items[0]); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Remove(items[1]); err != nil {
		t.Fatalf("remove: %v", err)
	}

	items, _ = store.GetBatch(10)
	if len(items) != 2 || items[0].Retries != 2 || items[1].Entries[0].Message != "three" {
		t.Fatalf("unexpected queue after update/remove: %+v", items)
	}
	if size, _ := store.Size(); size != 2 {
		t.Fatalf("expected size 2, got %d", size)
	}
}

func TestEnqueueRejectsEmpty(t *testing.T) {
	store := openStore(t)
	if err := store.Enqueue(Item{UserID: "u1"}); err != ErrEmptyItem {
		t.Fatalf("expected ErrEmptyItem, got %v", err)
	}
}

func TestCleanup(t *testing.T) {
	store := openStore(t)
	old := time.Now().Add(-48 * time.Hour)
	_ = store.Enqueue(Item{UserID: "u1", Entries: entry("old"), Timestamp: old})
	_ = store.Enqueue(Item{UserID: "u1", Entries: entry("new")})

	removed, err := store.Cleanup(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one removal, got %d", removed)
	}
	items, _ := store.GetBatch(10)
	if len(items) != 1 || items[0].Entries[0].Message != "new" {
		t.Fatalf("unexpected remaining items %+v", items)
	}
}

func TestPropertyQueueMatchesFIFOModel(t *testing.T) {
	store := openStore(t)
	rapid.Check(t, func(rt *rapid.T) {
		pending, err := store.GetBatch(1 << 20)
		if err != nil {
			rt.Fatalf("reset: %v", err)
		}
		for _, item := range pending {
			_ = store.Remove(item)
		}

		var model []string
		ops := rapid.SliceOfN(rapid.Bool(), 1, 40).Draw(rt, "enqueue")
		for i, enqueue := range ops {
			if enqueue || len(model) == 0 {
				msg := fmt.Sprintf("m%d", i)
				if err := store.Enqueue(Item{UserID: "u1", Entries: entry(msg)}); err != nil {
					rt.Fatalf("enqueue: %v", err)
				}
				model = append(model, msg)
				continue
			}
			head, err := store.GetBatch(1)
			if err != nil || len(head) != 1 {
				rt.Fatalf("head: %v %+v", err, head)
			}
			if head[0].Entries[0].Message != model[0] {
				rt.Fatalf("head = %q, want %q", head[0].Entries[0].Message, model[0])
			}
			if err := store.Remove(head[0]); err != nil {
				rt.Fatalf("remove: %v", err)
			}
			model = model[1:]
		}

		if size, _ := store.Size(); size != len(model) {
			rt.Fatalf("size = %d, want %d", size, len(model))
		}
	})
}
