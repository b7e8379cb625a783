package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testURI = "insights://runs/7/analyses/PAYROLL.cbl"

func TestPutGetRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "resources"))

	if err := s.Put("7", testURI, `{"program":"PAYROLL"}`, 30*time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	text, ok := s.Get("7", testURI)
	if !ok {
		t.Fatal("Get() cache miss, want hit")
	}
	if text != `{"program":"PAYROLL"}` {
		t.Fatalf("Get() text = %q, want %q", text, `{"program":"PAYROLL"}`)
	}

	info, err := os.Stat(s.entryPath("7", testURI))
	if err != nil {
		t.Fatalf("stat cache file: %v", err)
	}
	if got := info.Mode().Perm(); got != 0600 {
		t.Fatalf("cache file mode = %o, want 600", got)
	}
}

func TestGetIsScopedByRunID(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Put("7", testURI, "run seven", time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := s.Get("8", testURI); ok {
		t.Fatal("Get() hit for another run id, want miss")
	}
}

func TestGetExpiredEntryRemovesFile(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Put("7", testURI, "stale", -1*time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	path := s.entryPath("7", testURI)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file before read, stat error: %v", err)
	}

	if _, ok := s.Get("7", testURI); ok {
		t.Fatal("Get() hit = true, want false for expired entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected expired cache file to be removed, stat error = %v", err)
	}
}

func TestGetCorruptEntryRemovesFile(t *testing.T) {
	s := New(t.TempDir())

	path := s.entryPath("7", testURI)
	if err := os.WriteFile(path, []byte("{not-json"), 0600); err != nil {
		t.Fatalf("write corrupt cache file: %v", err)
	}

	if _, ok := s.Get("7", testURI); ok {
		t.Fatal("Get() hit = true, want false for corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected corrupt cache file to be removed, stat error = %v", err)
	}
}

func TestEntryPathStableAndScoped(t *testing.T) {
	s := New(t.TempDir())

	a := s.entryPath("7", testURI)
	b := s.entryPath("7", testURI)
	c := s.entryPath("7", "insights://runs/7/graph")

	if a != b {
		t.Fatalf("entryPath() not stable: %q != %q", a, b)
	}
	if a == c {
		t.Fatalf("entryPath() should differ per uri, got %q", a)
	}
}

func TestDefaultUsesXDGCacheHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)

	got := Default().Dir()
	want := filepath.Join(home, "migbridge", "resources")
	if got != want {
		t.Fatalf("Default().Dir() = %q, want %q", got, want)
	}
}

func TestGetMetadataReturnsAgeAndTTLForHit(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Put("7", testURI, "cached", 2*time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	age, ttl, ok := s.GetMetadata("7", testURI)
	if !ok {
		t.Fatal("GetMetadata() cache miss, want hit")
	}
	if age < 0 {
		t.Fatalf("GetMetadata() age = %s, want >= 0", age)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("GetMetadata() ttl = %s, want in (0, 2s]", ttl)
	}
}

func TestGetMetadataMiss(t *testing.T) {
	age, ttl, ok := New(t.TempDir()).GetMetadata("7", testURI)
	if ok {
		t.Fatalf("GetMetadata() ok = %v, want false", ok)
	}
	if age != 0 || ttl != 0 {
		t.Fatalf("GetMetadata() age/ttl = %s/%s, want 0/0", age, ttl)
	}
}
