package kvstore

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "bin:alpha", []byte(`{"id":"alpha"}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := store.Get(ctx, "bin:alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != `{"id":"alpha"}` {
		t.Errorf("Get = %s", data)
	}

	if err := store.Delete(ctx, "bin:alpha"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "bin:alpha"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())

	if _, err := store.Get(context.Background(), "bin:missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreDeleteMissingIsNoop(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())

	if err := store.Delete(context.Background(), "bin:missing"); err != nil {
		t.Errorf("Delete of absent key = %v, want nil", err)
	}
}

func TestFileStoreListByPrefix(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"bin:b", "bin:a", "session:x"} {
		if err := store.Put(ctx, key, []byte("v")); err != nil {
			t.Fatalf("Put %q failed: %v", key, err)
		}
	}

	keys, err := store.List(ctx, "bin:")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "bin:a" || keys[1] != "bin:b" {
		t.Errorf("List = %v, want sorted [bin:a bin:b]", keys)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(\"\") = %v, want all 3 keys", all)
	}
}

func TestFileStoreListEmptyDir(t *testing.T) {
	store, _ := NewFileStore(t.TempDir() + "/never-created")

	keys, err := store.List(context.Background(), "bin:")
	if err != nil {
		t.Fatalf("List on absent dir = %v, want nil error", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
}
