package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteAndSanitize(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "portraits/owner-1/original/1.jpg", []byte("blob"), "image/jpeg")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "portraits/owner-1/original/1.jpg" {
		t.Fatalf("canonical key = %q", key)
	}
	data, err := os.ReadFile(filepath.Join(base, "portraits", "owner-1", "original", "1.jpg"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "blob" {
		t.Fatalf("content = %q", data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	cases := []string{"", "../escape.jpg", "a/../../escape.jpg", "."}
	for _, key := range cases {
		if _, err := store.Write(context.Background(), key, []byte("x"), "image/jpeg"); err == nil {
			t.Fatalf("key %q: expected error", key)
		}
	}
}

func TestFileStoreHonorsContextCancel(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "k.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Fatal("expected context error")
	}
}
