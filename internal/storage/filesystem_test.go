package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	key, err := store.Write(context.Background(), "/exports/c1/../c1/pkg.zip", []byte("zip"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if key != "exports/c1/pkg.zip" {
		t.Fatalf("got key %q", key)
	}
	if _, err := os.Stat(filepath.Join(dir, "exports", "c1", "pkg.zip")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	data, err := store.Read(context.Background(), key)
	if err != nil || string(data) != "zip" {
		t.Fatalf("Read = %q, %v", data, err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	for _, key := range []string{"", "  ", "../escape.png", "a/../../escape.png", "."} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
		if _, err := store.Read(context.Background(), key); err == nil {
			t.Fatalf("expected read error for key %q", key)
		}
	}
}

func TestFileStoreHonorsCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "a.png", []byte("x")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Fatal("expected error for empty base path")
	}
}
