package storage

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	key, err := s.Put("map.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "a,b\n1,2\n" {
		t.Fatalf("round trip mismatch: %q", data)
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	for _, key := range []string{"", "../escape.csv", "sub/dir.csv"} {
		if _, err := s.Put(key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}

func TestFSStoreListFiltersByPrefix(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	for _, key := range []string{"anonymization_map_2.csv", "anonymization_map_1.csv", "other.txt"} {
		if _, err := s.Put(key, strings.NewReader("x")); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}
	keys, err := s.List("anonymization_map_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 || keys[0] != "anonymization_map_1.csv" || keys[1] != "anonymization_map_2.csv" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestMapKeySanitizesCourseID(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	got := MapKey("badm 554/foo", now)
	want := "anonymization_map_badm_554_foo_20260828_143000.csv"
	if got != want {
		t.Fatalf("MapKey: got %q want %q", got, want)
	}
}
