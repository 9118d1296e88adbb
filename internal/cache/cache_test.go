package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), 8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data := []byte("tile-bytes")
	if err := c.Put("osm_10_534_356.png", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get("osm_10_534_356.png")
	if !ok {
		t.Fatal("Get miss after Put")
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get = %q, want %q", got, data)
	}
}

func TestGetMissing(t *testing.T) {
	c, err := New(t.TempDir(), 8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := c.Get("osm_10_0_0.png"); ok {
		t.Error("hit for a tile that was never stored")
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir, 8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Put("osm_10_534_356.png", []byte("persisted")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second, err := New(dir, 8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, ok := second.Get("osm_10_534_356.png")
	if !ok {
		t.Fatal("tile not found by a fresh cache instance")
	}
	if string(got) != "persisted" {
		t.Errorf("Get = %q", got)
	}
}

func TestMemoryLayerServesDeletedFile(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Put("osm_10_1_1.png", []byte("in-memory")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "osm_10_1_1.png")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, ok := c.Get("osm_10_1_1.png"); !ok {
		t.Error("memory layer did not serve a tile written this run")
	}
}

func TestStatsAndClear(t *testing.T) {
	c, err := New(t.TempDir(), 8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("osm_10_1_1.png", []byte("aaaa"))
	c.Put("osm_10_1_2.png", []byte("bbbbbb"))

	entries, size, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if entries != 2 {
		t.Errorf("entries = %d, want 2", entries)
	}
	if size != 10 {
		t.Errorf("size = %d, want 10", size)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats after Clear: %v", err)
	}
	if entries != 0 {
		t.Errorf("entries after Clear = %d, want 0", entries)
	}
	if _, ok := c.Get("osm_10_1_1.png"); ok {
		t.Error("Get hit after Clear")
	}
}

func TestHitRate(t *testing.T) {
	c, err := New(t.TempDir(), 8, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("osm_10_1_1.png", []byte("x"))
	c.Get("osm_10_1_1.png")
	c.Get("osm_10_9_9.png")

	hits, misses := c.HitRate()
	if hits != 1 || misses != 1 {
		t.Errorf("HitRate = %d/%d, want 1/1", hits, misses)
	}
}
