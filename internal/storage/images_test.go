package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s := NewImages(root, 1<<20)

	url, err := s.Save(bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/products/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url=%q", url)
	}

	onDisk := filepath.Join(root, "products", filepath.Base(url))
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("file missing: %v", err)
	}

	if err := s.Delete(url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(onDisk); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file should be gone: %v", err)
	}
	if err := s.Delete(url); err != nil {
		t.Fatalf("deleting twice is fine: %v", err)
	}
}

func TestSaveRejects(t *testing.T) {
	s := NewImages(t.TempDir(), int64(len(pngBytes)))

	if _, err := s.Save(strings.NewReader("#!/bin/sh\necho hi\n")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
	if _, err := s.Save(bytes.NewReader(nil)); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected empty, got %v", err)
	}
	if _, err := s.Save(bytes.NewReader(append(pngBytes, 0))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
}

func TestDeleteIgnoresForeignPaths(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "keep.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewImages(filepath.Join(root, "uploads"), 1<<20)
	for _, u := range []string{"https://cdn.example/a.png", "/uploads/products/../../keep.txt", ""} {
		if err := s.Delete(u); err != nil {
			t.Fatalf("delete %q: %v", u, err)
		}
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("file outside uploads must survive: %v", err)
	}
}
