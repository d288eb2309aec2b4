package auth

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	s := Load(path, testLogger())
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d users", s.Len())
	}
	if s.Contains(1) {
		t.Error("expected no authorized users")
	}
}

func TestAuthorizePersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	s := Load(path, testLogger())
	if err := s.Authorize(100); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if err := s.Authorize(200); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}

	reloaded := Load(path, testLogger())
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 users after reload, got %d", reloaded.Len())
	}
	for _, id := range []int64{100, 200} {
		if !reloaded.Contains(id) {
			t.Errorf("expected user %d to survive reload", id)
		}
	}
	if reloaded.Contains(300) {
		t.Error("unexpected user 300")
	}
}

func TestAuthorizeIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	s := Load(path, testLogger())

	if err := s.Authorize(1); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if err := s.Authorize(1); err != nil {
		t.Fatalf("repeated Authorize failed: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 user, got %d", s.Len())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("not json{"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(path, testLogger())
	if s.Len() != 0 {
		t.Errorf("expected empty store for corrupt file, got %d users", s.Len())
	}

	// The store must still accept new authorizations.
	if err := s.Authorize(5); err != nil {
		t.Fatalf("Authorize after corrupt load failed: %v", err)
	}
	if !Load(path, testLogger()).Contains(5) {
		t.Error("expected user 5 persisted after corrupt load recovery")
	}
}

func TestAuthorizeCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "users.json")
	s := Load(path, testLogger())
	if err := s.Authorize(42); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}
